package search

// Limits bounds the page size a caller may request.
type Limits struct {
	Min     int
	Max     int
	Default int
}

// DefaultLimits is used when no configuration overrides it.
var DefaultLimits = Limits{Min: 10, Max: 50, Default: 12}

// Clamp returns the effective page size for a requested one; 0 selects Default.
func (l Limits) Clamp(size int) int {
	if size <= 0 {
		size = l.Default
	}
	if size < l.Min {
		size = l.Min
	}
	if l.Max > 0 && size > l.Max {
		size = l.Max
	}
	return size
}

// Page is one slice of a sorted result list.
type Page struct {
	Items      []ScoredResult `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// Paginate returns results[(page-1)*size : page*size] with the page size
// clamped by limits. A page past the end yields no items, never an error.
func Paginate(results []ScoredResult, page, pageSize int, limits Limits) Page {
	size := limits.Clamp(pageSize)
	if page < 1 {
		page = 1
	}
	total := len(results)
	p := Page{
		Items:      []ScoredResult{},
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}
	// Compare page numbers before multiplying so huge pages cannot overflow.
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	p.Items = results[start:end]
	return p
}
