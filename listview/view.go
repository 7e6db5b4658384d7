package listview

// View combines the list state of one screen. Changing the query or a facet
// returns to the first page.
type View[T any] struct {
	Filter  Filter[T]
	Pager   Pager
	Columns *Columns
	rows    []T
}

// Page is what a list screen renders
type Page[T any] struct {
	Rows []T
	// Matched counts the rows passing the filter across all pages
	Matched int
	Window  Window
	Columns []Column
}

func NewView[T any](filter Filter[T], perPage int, columns *Columns) *View[T] {
	if columns == nil {
		columns = NewColumns(nil)
	}
	return &View[T]{
		Filter:  filter,
		Pager:   Pager{Page: 1, PerPage: perPage},
		Columns: columns,
	}
}

func (v *View[T]) SetRows(rows []T) {
	v.rows = rows
}

func (v *View[T]) Rows() []T {
	return v.rows
}

func (v *View[T]) SetQuery(query string) {
	v.Filter.Query = query
	v.Pager.Page = 1
}

func (v *View[T]) Select(facet, value string) {
	v.Filter.Select(facet, value)
	v.Pager.Page = 1
}

func (v *View[T]) SetPage(page int) {
	v.Pager.Page = page
}

func (v *View[T]) Next() {
	w := v.Current().Window
	if w.HasNext {
		v.Pager.Page = w.Page + 1
	}
}

func (v *View[T]) Prev() {
	w := v.Current().Window
	if w.HasPrev {
		v.Pager.Page = w.Page - 1
	}
}

// Options lists the values of a facet over all rows
func (v *View[T]) Options(facet string) []string {
	return v.Filter.DistinctValues(v.rows, facet)
}

func (v *View[T]) Current() Page[T] {
	filtered := v.Filter.Apply(v.rows)
	return Page[T]{
		Rows:    Slice(filtered, v.Pager),
		Matched: len(filtered),
		Window:  v.Pager.Window(len(filtered)),
		Columns: v.Columns.VisibleColumns(),
	}
}
