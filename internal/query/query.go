// Package query translates a listing filter and sort into a deterministic
// result set, either as a MongoDB filter/sort pair or in memory.
package query

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/radz2291/RZ-Property/internal/models"
)

// Scope decides whether non-public statuses are excluded.
type Scope int

const (
	Public Scope = iota
	Admin
)

func (s Scope) String() string {
	if s == Admin {
		return "admin"
	}
	return "public"
}

// SortOrder is a single total order key; ties are broken by id ascending.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortSize      SortOrder = "size"
)

// ParseSort maps an input value to a SortOrder, defaulting to newest.
func ParseSort(v string) SortOrder {
	switch SortOrder(v) {
	case SortPriceLow, SortPriceHigh, SortSize:
		return SortOrder(v)
	default:
		return SortNewest
	}
}

// Filter fields are optional and conjunctive. Empty strings and "all" mean
// no constraint; false feature flags impose nothing.
type Filter struct {
	Category     string
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	Parking      bool
	Furnished    bool
	AirCon       bool
	Search       string

	// Featured narrows to homepage properties when set.
	Featured *bool
}

// Spec is a complete listing query.
type Spec struct {
	Filter Filter
	Sort   SortOrder
	Scope  Scope
	Limit  int64
}

// Empty reports whether the filter can never match: both price bounds given
// with min above max. Bounds are never swapped.
func (f Filter) Empty() bool {
	return f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice
}

func present(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "all")
}

// MongoFilter builds the collection filter for spec.
func MongoFilter(spec Spec) bson.M {
	f := spec.Filter
	filter := bson.M{}

	if present(f.Category) {
		filter["category"] = strings.TrimSpace(f.Category)
	}
	if present(f.PropertyType) {
		filter["property_type"] = strings.TrimSpace(f.PropertyType)
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if f.Parking {
		filter["has_parking"] = true
	}
	if f.Furnished {
		filter["has_furnished"] = true
	}
	if f.AirCon {
		filter["has_air_con"] = true
	}
	if f.Featured != nil {
		filter["is_featured"] = *f.Featured
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"address": pattern},
			bson.M{"district": pattern},
		}
	}

	if spec.Scope == Public {
		filter["status"] = bson.M{"$nin": models.NonPublicStatuses}
	}
	return filter
}

// MongoSort returns the sort document for order with an _id tie-break.
func MongoSort(order SortOrder) bson.D {
	switch order {
	case SortPriceLow:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceHigh:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case SortSize:
		return bson.D{{Key: "size", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

// Match reports whether p satisfies spec's filter and scope.
func Match(spec Spec, p *models.Property) bool {
	f := spec.Filter
	if f.Empty() {
		return false
	}
	if spec.Scope == Public && !p.Status.IsPublic() {
		return false
	}
	if present(f.Category) && string(p.Category) != strings.TrimSpace(f.Category) {
		return false
	}
	if present(f.PropertyType) && string(p.PropertyType) != strings.TrimSpace(f.PropertyType) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if (f.Parking && !p.HasParking) || (f.Furnished && !p.HasFurnished) || (f.AirCon && !p.HasAirCon) {
		return false
	}
	if f.Featured != nil && p.IsFeatured != *f.Featured {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		hit := false
		for _, field := range []string{p.Title, p.Description, p.Address, p.District} {
			if strings.Contains(strings.ToLower(field), s) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Less orders a before b under order, breaking ties by id.
func Less(order SortOrder, a, b *models.Property) bool {
	switch order {
	case SortPriceLow:
		if a.Price != b.Price {
			return a.Price < b.Price
		}
	case SortPriceHigh:
		if a.Price != b.Price {
			return a.Price > b.Price
		}
	case SortSize:
		if a.Size != b.Size {
			return a.Size > b.Size
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID.Compare(b.ID) < 0
}

// Apply filters and sorts props in memory. The input is not modified.
func Apply(spec Spec, props []models.Property) []models.Property {
	out := []models.Property{}
	for i := range props {
		if Match(spec, &props[i]) {
			out = append(out, props[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(spec.Sort, &out[i], &out[j]) })
	if spec.Limit > 0 && int64(len(out)) > spec.Limit {
		out = out[:spec.Limit]
	}
	return out
}

// PropertyFinder runs a translated query against the record store.
type PropertyFinder interface {
	FindProperties(ctx context.Context, spec Spec) ([]models.Property, error)
}

// Engine is the listing query entry point.
type Engine struct {
	finder PropertyFinder
}

// NewEngine returns an Engine backed by finder.
func NewEngine(finder PropertyFinder) *Engine {
	return &Engine{finder: finder}
}

// Query returns the matching properties in a deterministic order. A min
// price above the max price yields an empty result without touching the store.
func (e *Engine) Query(ctx context.Context, spec Spec) ([]models.Property, error) {
	if spec.Sort == "" {
		spec.Sort = SortNewest
	}
	if spec.Filter.Empty() {
		return []models.Property{}, nil
	}
	props, err := e.finder.FindProperties(ctx, spec)
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = []models.Property{}
	}
	return props, nil
}

// ParseFilter reads filter fields from string values such as URL query
// parameters. Unparseable numbers are reported by key.
func ParseFilter(get func(key string) string) (Filter, map[string]string) {
	f := Filter{
		Category:     get("category"),
		PropertyType: get("type"),
		Parking:      truthy(get("parking")),
		Furnished:    truthy(get("furnished")),
		AirCon:       truthy(get("airCon")),
		Search:       get("search"),
	}
	problems := map[string]string{}
	for key, dst := range map[string]**float64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := strings.TrimSpace(get(key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			problems[key] = "must be a number"
			continue
		}
		*dst = &v
	}
	return f, problems
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
