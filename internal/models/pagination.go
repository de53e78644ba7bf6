package models

// PageRequest is a 1-based page number with a page size.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items []T
	Total int64
	PageRequest
}

func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages()
}
