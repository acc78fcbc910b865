package models

// DefaultPageSize matches the listing size used by every paginated endpoint.
const DefaultPageSize = 10

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize fills in defaults for a zero or out-of-range page.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

// PageResult is one page of a listing plus the total row count.
type PageResult[T any] struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	Results []T `json:"results"`
}
