package store

// Pagination defaults and bounds for list queries.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params carries the 1-indexed page and page size for a list query.
type Params struct {
	Page  int
	Limit int
}

// normalized clamps params to sane values.
func (p Params) normalized() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Pagination describes the page of results returned by a list query.
type Pagination struct {
	Current int  `json:"current"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// paginate slices a fully filtered, sorted result set into the requested
// page. Pages past the end yield an empty slice with correct metadata.
func paginate[T any](items []T, p Params) ([]T, Pagination) {
	p = p.normalized()

	total := len(items)
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		pages = 1
	}

	meta := Pagination{
		Current: p.Page,
		Pages:   pages,
		Total:   total,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}

	start := (p.Page - 1) * p.Limit
	if start >= total {
		return []T{}, meta
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return items[start:end], meta
}
