package views

// Paginator tracks a cursor over a list shown one page at a time
type Paginator struct {
	pageSize int
	cursor   int
	total    int
}

// NewPaginator creates a paginator showing pageSize items per page
func NewPaginator(pageSize int) *Paginator {
	return &Paginator{pageSize: max(pageSize, 1)}
}

// Resize changes the page size, keeping the cursor on the same item
func (p *Paginator) Resize(pageSize int) {
	p.pageSize = max(pageSize, 1)
}

// SetTotal sets the list length and clamps the cursor into it
func (p *Paginator) SetTotal(total int) {
	p.total = total
	p.cursor = max(min(p.cursor, total-1), 0)
}

// Cursor returns the absolute index of the selected item
func (p *Paginator) Cursor() int {
	return p.cursor
}

// CursorUp moves one item up and reports whether it moved
func (p *Paginator) CursorUp() bool {
	if p.cursor == 0 {
		return false
	}
	p.cursor--
	return true
}

// CursorDown moves one item down and reports whether it moved
func (p *Paginator) CursorDown() bool {
	if p.cursor >= p.total-1 {
		return false
	}
	p.cursor++
	return true
}

// NextPage moves the cursor to the first item of the next page
func (p *Paginator) NextPage() bool {
	start, _ := p.VisibleRange()
	if start+p.pageSize >= p.total {
		return false
	}
	p.cursor = start + p.pageSize
	return true
}

// PrevPage moves the cursor to the first item of the previous page
func (p *Paginator) PrevPage() bool {
	start, _ := p.VisibleRange()
	if start == 0 {
		return false
	}
	p.cursor = start - p.pageSize
	return true
}

// VisibleRange returns the half-open index range of the cursor's page
func (p *Paginator) VisibleRange() (start, end int) {
	start = p.cursor / p.pageSize * p.pageSize
	return start, min(start+p.pageSize, p.total)
}

// TotalPages returns the number of pages, at least 1
func (p *Paginator) TotalPages() int {
	return max((p.total+p.pageSize-1)/p.pageSize, 1)
}

// CurrentPage returns the 1-based page of the cursor
func (p *Paginator) CurrentPage() int {
	return p.cursor/p.pageSize + 1
}

// Reset empties the list
func (p *Paginator) Reset() {
	p.cursor = 0
	p.total = 0
}
