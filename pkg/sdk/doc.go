// Package facetdex is a Go client for the facetdex HTTP API.
//
// facetdex indexes loosely-typed records into RediSearch, keeps per-field
// facet tables and serves full-text search with filters and highlights.
//
//	client, _ := facetdex.New("http://localhost:8080", facetdex.WithAPIKey(key))
//	_, _ = client.Collections().Ensure(ctx, "crops",
//	    facetdex.WithField("item", facetdex.FieldText),
//	    facetdex.WithField("area", facetdex.FieldKeyword),
//	    facetdex.WithField("year", facetdex.FieldInteger),
//	)
//
// # Bulk import with progress
//
//	f, _ := os.Open("crops.csv")
//	summary, _ := client.Import("crops").Stream(ctx, f,
//	    facetdex.ImportOptions{Format: "csv"},
//	    func(ev facetdex.ImportEvent) error {
//	        log.Printf("%s: %d/%d", ev.Type, ev.Progress.Succeeded, ev.Progress.Processed)
//	        return nil
//	    })
//
// # Search
//
//	page, _ := client.Search("crops").
//	    Query("wheat").
//	    Where("area", "Tunisia").
//	    Between("year", 2000, nil).
//	    Do(ctx)
package facetdex
