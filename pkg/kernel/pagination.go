package kernel

// Page carries pagination metadata for a listed result.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Total  int `json:"total"`
	Pages  int `json:"pages"`
}

// Paginated wraps a page of items with its metadata.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated builds a Paginated result, computing the page count.
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Paginated[T]{
		Items: items,
		Page:  Page{Number: page, Size: size, Total: total, Pages: pages},
		Empty: len(items) == 0,
	}
}

// HasNext reports whether pages remain after the current one.
func (p Paginated[T]) HasNext() bool { return p.Page.Number < p.Page.Pages }

// HasPrevious reports whether pages precede the current one.
func (p Paginated[T]) HasPrevious() bool { return p.Page.Number > 1 }

// PaginationOptions are the page selectors accepted by list queries.
type PaginationOptions struct {
	Page     int
	PageSize int
}
