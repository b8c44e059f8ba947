package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
	"github.com/kailas-cloud/facetdex/internal/repository/codec"
)

// ScoreSort selects relevance order explicitly.
const ScoreSort = "_score"

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search runs a free text and filter query against the collection index and
// hydrates hits with typed values.
func (r *Repo) Search(ctx context.Context, col collection.Collection, req request.Request) (result.Page, error) {
	q, err := BuildQuery(col, req)
	if err != nil {
		return result.Page{}, err
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return result.Page{}, domain.ErrNotFound
		}
		return result.Page{}, fmt.Errorf("search %s: %w", col.Name(), err)
	}

	prefix := fmt.Sprintf("%s%s:", domain.KeyPrefix, col.Name())
	results := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := strings.TrimPrefix(e.Key, prefix)
		results = append(results, result.New(id, e.Score, codec.Decode(col, e.Fields)))
	}

	return result.Page{
		Results:  results,
		Total:    int64(sr.Total),
		Page:     req.Page(),
		PageSize: req.PageSize(),
	}, nil
}

// BuildQuery translates a validated request into an engine query using the
// collection schema. Unknown fields and type mismatches fail with
// domain.ErrInvalidFilter.
func BuildQuery(col collection.Collection, req request.Request) (*db.Query, error) {
	q := &db.Query{
		IndexName: fmt.Sprintf("%s%s:idx", domain.KeyPrefix, col.Name()),
		Offset:    req.Offset(),
		Limit:     req.PageSize(),
	}

	if req.HasText() {
		q.Text = req.Text()
		q.WithScores = true
		for _, f := range col.TextFields() {
			q.TextFields = append(q.TextFields, f.Name())
		}
	}

	for _, c := range req.Filters().Must() {
		f, ok := col.FieldByName(c.Key())
		if !ok {
			return nil, fmt.Errorf("unknown field %q: %w", c.Key(), domain.ErrInvalidFilter)
		}
		dbf, err := buildFilter(f, c)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w: %w", c.Key(), domain.ErrInvalidFilter, err)
		}
		q.Filters = append(q.Filters, dbf)
	}

	switch s := req.Sort(); {
	case s != nil && s.Field == ScoreSort:
		if !req.HasText() {
			return nil, fmt.Errorf("relevance sort requires free text: %w", domain.ErrInvalidFilter)
		}
	case s != nil:
		f, ok := col.FieldByName(s.Field)
		if !ok || !f.FieldType().Sortable() {
			return nil, fmt.Errorf("field %q is not sortable: %w", s.Field, domain.ErrInvalidFilter)
		}
		q.SortBy = f.Name()
		q.SortDesc = s.Desc
	case !req.HasText():
		q.SortBy = codec.SeqField
	}

	return q, nil
}

func buildFilter(f field.Field, c filter.Condition) (db.Filter, error) {
	t := f.FieldType()
	if t.IsNumeric() {
		return numericFilter(f, c)
	}
	if c.IsRange() {
		return db.Filter{}, fmt.Errorf("range filter on %s field", t)
	}

	v, err := t.Coerce(c.Match())
	if err != nil {
		return db.Filter{}, err
	}
	attr := f.Name()
	if t == field.Text {
		attr = f.ExactName()
	}
	return db.Filter{Field: attr, Kind: db.FilterTag, Tag: v.String()}, nil
}

func numericFilter(f field.Field, c filter.Condition) (db.Filter, error) {
	out := db.Filter{Field: f.Name(), Kind: db.FilterNumeric}
	if c.IsMatch() {
		n, err := toNumber(f.FieldType(), c.Match())
		if err != nil {
			return db.Filter{}, err
		}
		out.Min, out.Max = &n, &n
		return out, nil
	}

	r := c.Range()
	if !r.GTE().IsNull() {
		n, err := toNumber(f.FieldType(), r.GTE())
		if err != nil {
			return db.Filter{}, err
		}
		out.Min = &n
	}
	if !r.LTE().IsNull() {
		n, err := toNumber(f.FieldType(), r.LTE())
		if err != nil {
			return db.Filter{}, err
		}
		out.Max = &n
	}
	return out, nil
}

// toNumber renders a bound the way values are stored: dates as epoch millis.
func toNumber(t field.Type, v value.Value) (float64, error) {
	if t == field.Date {
		d, err := value.ToDate(v)
		if err != nil {
			return 0, err
		}
		ts, _ := d.Time()
		return float64(ts.UnixMilli()), nil
	}
	n, err := value.ToFloat(v)
	if err != nil {
		return 0, err
	}
	f, _ := n.Float()
	return f, nil
}
