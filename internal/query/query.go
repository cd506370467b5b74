// internal/query/query.go
//
// In-memory filtering, search and sorting for table views. Pure functions of
// (data, params); the HTTP layer translates query-string params into Params
// and callers supply field accessors per entity.
package query

import (
	"sort"
	"strings"

	"subdesk-service/internal/pkg/id"
)

// Direction is the tri-state sort direction a column header cycles through.
type Direction string

const (
	DirNone Direction = ""
	DirAsc  Direction = "asc"
	DirDesc Direction = "desc"
)

// NextDirection advances a column's sort state: unsorted -> asc -> desc -> unsorted.
func NextDirection(cur Direction) Direction {
	switch cur {
	case DirAsc:
		return DirDesc
	case DirDesc:
		return DirNone
	default:
		return DirAsc
	}
}

func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "asc":
		return DirAsc
	case "desc":
		return DirDesc
	default:
		return DirNone
	}
}

// Fields maps a column name to its string projection of an item.
type Fields[T any] map[string]func(T) string

// Params drives one table view evaluation.
type Params[T any] struct {
	// Free-text search, case-insensitive substring over SearchFields.
	Search       string
	SearchFields []string

	// Per-column equality filters (case-insensitive). A column present in
	// FilterFuncs is evaluated by that predicate instead, which is how the
	// composite package/status filters plug in.
	Filters     map[string]string
	FilterFuncs map[string]func(item T, value string) bool

	SortBy  string
	SortDir Direction

	Fields Fields[T]

	// Optional comparators per column; columns without one fall back to a
	// case-insensitive compare of the Fields projection.
	Compare map[string]func(a, b T) int
}

// Apply evaluates search, filters and sort, returning a new slice. The input
// slice is never mutated and order is stable for equal sort keys.
func Apply[T any](items []T, p Params[T]) []T {
	out := make([]T, 0, len(items))

	search := strings.ToLower(strings.TrimSpace(p.Search))
	for _, item := range items {
		if search != "" && !matchesSearch(item, search, p) {
			continue
		}
		if !matchesFilters(item, p) {
			continue
		}
		out = append(out, item)
	}

	if p.SortBy != "" && p.SortDir != DirNone {
		sortItems(out, p)
	}
	return out
}

func matchesSearch[T any](item T, search string, p Params[T]) bool {
	for _, field := range p.SearchFields {
		accessor, ok := p.Fields[field]
		if !ok {
			continue
		}
		value := accessor(item)
		// Ids are displayed truncated, so search matches against the
		// visible prefix only.
		if field == "id" {
			value = id.Short(value)
		}
		if strings.Contains(strings.ToLower(value), search) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](item T, p Params[T]) bool {
	for column, value := range p.Filters {
		if value == "" {
			continue
		}
		if fn, ok := p.FilterFuncs[column]; ok {
			if !fn(item, value) {
				return false
			}
			continue
		}
		accessor, ok := p.Fields[column]
		if !ok {
			return false
		}
		if !strings.EqualFold(accessor(item), value) {
			return false
		}
	}
	return true
}

func sortItems[T any](items []T, p Params[T]) {
	cmp := p.Compare[p.SortBy]
	if cmp == nil {
		accessor, ok := p.Fields[p.SortBy]
		if !ok {
			return
		}
		cmp = func(a, b T) int {
			return strings.Compare(strings.ToLower(accessor(a)), strings.ToLower(accessor(b)))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if p.SortDir == DirDesc {
			return c > 0
		}
		return c < 0
	})
}
