package pagination

const (
	// DefaultPageSize matches the storefront cart window.
	DefaultPageSize = 6
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 50
)

// Params holds page/size pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Window describes a server-paginated slice of a larger collection. The
// totals are authoritative for the whole collection, not the visible page.
type Window struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Normalize enforces sane page and page-size bounds.
func Normalize(p Params) Params {
	if p.Page <= 0 {
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

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	norm := Normalize(p)
	return (norm.Page - 1) * norm.PageSize
}

// NewWindow computes the window metadata for a total row count.
func NewWindow(p Params, totalItems int64) Window {
	norm := Normalize(p)
	totalPages := int((totalItems + int64(norm.PageSize) - 1) / int64(norm.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	return Window{
		Page:       norm.Page,
		PageSize:   norm.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
