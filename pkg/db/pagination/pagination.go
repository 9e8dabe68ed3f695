package pagination

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type Pagination struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=50"`
}

type PageInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// Normalize clamps the page to >= 1 and the size to [1, MaxPageSize].
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// BuildPageInfo trims the extra look-ahead row fetched by the repository and
// reports whether another page exists.
func BuildPageInfo[T any](data []T, page Pagination) ([]T, PageInfo) {
	page = page.Normalize()
	info := PageInfo{Page: page.Page, PageSize: page.PageSize}
	if len(data) > page.PageSize {
		info.HasMore = true
		data = data[:page.PageSize]
	}
	return data, info
}
