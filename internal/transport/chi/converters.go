package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
	collectionuc "github.com/kailas-cloud/facetdex/internal/usecase/collection"
)

func fieldSpecs(ff []FieldDefinition) []domcol.FieldSpec {
	specs := make([]domcol.FieldSpec, len(ff))
	for i, f := range ff {
		specs[i] = domcol.FieldSpec{Name: f.Name, Type: field.Type(f.Type)}
	}
	return specs
}

func metadataFromAPI(req CreateCollectionRequest) domcol.Metadata {
	return domcol.Metadata{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Creator:     req.Creator,
	}
}

func collectionToAPI(info collectionuc.Info) Collection {
	out := Collection{
		Name:        info.Name,
		Title:       info.Metadata.Title,
		Description: info.Metadata.Description,
		Icon:        info.Metadata.Icon,
		Creator:     info.Metadata.Creator,
		Health:      info.Health,
		CreatedAt:   timePtr(info.Metadata.CreatedAt),
		UpdatedAt:   timePtr(info.Metadata.UpdatedAt),
	}
	if info.Collection != nil {
		c := info.Collection
		out.Revision = c.Revision()
		out.Fields = make([]FieldDefinition, len(c.Fields()))
		for i, f := range c.Fields() {
			out.Fields[i] = FieldDefinition{Name: f.Name(), Type: string(f.FieldType())}
		}
		out.CreatedAt = timePtr(time.UnixMilli(c.CreatedAt()))
		out.UpdatedAt = timePtr(time.UnixMilli(c.UpdatedAt()))
		stats := info.Stats
		out.Stats = &stats
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() || t.UnixMilli() == 0 {
		return nil
	}
	u := t.UTC()
	return &u
}

// rangeFilter is the JSON form of a range condition.
type rangeFilter struct {
	GTE *value.Value `json:"gte"`
	LTE *value.Value `json:"lte"`
}

func searchRequestFromAPI(req SearchRequest) (request.Request, error) {
	keys := make([]string, 0, len(req.Filters))
	for k := range req.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	conds := make([]filter.Condition, 0, len(keys))
	for _, k := range keys {
		c, err := conditionFromJSON(k, req.Filters[k])
		if err != nil {
			return request.Request{}, fmt.Errorf("filter %s: %w: %w", k, domain.ErrInvalidFilter, err)
		}
		conds = append(conds, c)
	}
	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}

	var sort *request.Sort
	if req.Sort != nil {
		sort = &request.Sort{Field: req.Sort.Field}
		switch strings.ToLower(req.Sort.Order) {
		case "", "asc":
		case "desc":
			sort.Desc = true
		default:
			return request.Request{}, fmt.Errorf("sort order %q: %w", req.Sort.Order, domain.ErrInvalidFilter)
		}
	}

	return request.New(req.Query, expr, req.Page, req.PageSize, sort)
}

func conditionFromJSON(key string, raw json.RawMessage) (filter.Condition, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var rf rangeFilter
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rf); err != nil {
			return filter.Condition{}, fmt.Errorf("range: %w", err)
		}
		var gte, lte value.Value
		if rf.GTE != nil {
			gte = *rf.GTE
		}
		if rf.LTE != nil {
			lte = *rf.LTE
		}
		r, err := filter.NewRangeFilter(gte, lte)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.NewRange(key, r)
	}

	var v value.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return filter.Condition{}, err
	}
	return filter.NewMatch(key, v)
}
