// Package listview is the state behind every list screen: a free text
// search, exact-match facet filters, a pagination window and column
// visibility.
package listview

import "strings"

// Filter keeps rows that contain the query in any searchable field and
// match every selected facet exactly.
type Filter[T any] struct {
	Query string
	// Fields lists the searchable text of a row
	Fields func(T) []string
	// Facets extract the value of each named facet, e.g. department or status
	Facets   map[string]func(T) string
	Selected map[string]string
}

// Select sets a facet value. An empty value clears the facet.
func (f *Filter[T]) Select(facet, value string) {
	if f.Selected == nil {
		f.Selected = map[string]string{}
	}
	if value == "" {
		delete(f.Selected, facet)
		return
	}
	f.Selected[facet] = value
}

func (f *Filter[T]) Active() bool {
	return strings.TrimSpace(f.Query) != "" || len(f.Selected) > 0
}

func (f *Filter[T]) Apply(rows []T) []T {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if query != "" && !f.matchesQuery(row, query) {
			continue
		}
		if !f.matchesFacets(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (f *Filter[T]) matchesQuery(row T, query string) bool {
	if f.Fields == nil {
		return false
	}
	for _, field := range f.Fields(row) {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (f *Filter[T]) matchesFacets(row T) bool {
	for facet, want := range f.Selected {
		if want == "" {
			continue
		}
		extract, ok := f.Facets[facet]
		if !ok || extract(row) != want {
			return false
		}
	}
	return true
}

// DistinctValues lists the non-empty values of a facet in first-seen order,
// the options of a facet's dropdown.
func (f *Filter[T]) DistinctValues(rows []T, facet string) []string {
	extract, ok := f.Facets[facet]
	if !ok {
		return nil
	}
	seen := map[string]struct{}{}
	var values []string
	for _, row := range rows {
		v := extract(row)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
