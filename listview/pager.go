package listview

const (
	DefaultPerPage        = 5
	DefaultMaxPagesToShow = 5
)

type Pager struct {
	Page           int
	PerPage        int
	MaxPagesToShow int
}

// Window describes what a pagination bar shows for one page
type Window struct {
	Page       int
	TotalPages int
	// StartItem and EndItem are 1-based and inclusive, both 0 when empty
	StartItem int
	EndItem   int
	// Pages are the page buttons, empty when there is at most one page
	Pages   []int
	HasPrev bool
	HasNext bool
}

func (p Pager) perPage() int {
	if p.PerPage <= 0 {
		return DefaultPerPage
	}
	return p.PerPage
}

func (p Pager) maxPages() int {
	if p.MaxPagesToShow <= 0 {
		return DefaultMaxPagesToShow
	}
	return p.MaxPagesToShow
}

// TotalPages is ceil(total / PerPage)
func (p Pager) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	per := p.perPage()
	return (total + per - 1) / per
}

// Clamp returns the page moved into [1, TotalPages]
func (p Pager) Clamp(total int) int {
	page := p.Page
	if last := p.TotalPages(total); page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}

func (p Pager) Window(total int) Window {
	per := p.perPage()
	totalPages := p.TotalPages(total)
	page := p.Clamp(total)

	w := Window{
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if total > 0 {
		w.StartItem = (page-1)*per + 1
		w.EndItem = min(page*per, total)
	}
	if totalPages <= 1 {
		return w
	}

	// centre the current page, then slide back when the tail runs short
	maxPages := p.maxPages()
	start := max(1, page-maxPages/2)
	end := min(totalPages, start+maxPages-1)
	if end-start+1 < maxPages {
		start = max(1, end-maxPages+1)
	}
	for i := start; i <= end; i++ {
		w.Pages = append(w.Pages, i)
	}
	return w
}

// Slice returns the rows of the pager's page
func Slice[T any](rows []T, p Pager) []T {
	total := len(rows)
	if total == 0 {
		return nil
	}
	per := p.perPage()
	first := (p.Clamp(total) - 1) * per
	last := min(first+per, total)
	return rows[first:last]
}
