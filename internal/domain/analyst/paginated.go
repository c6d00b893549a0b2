package analyst

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Analysis `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Total      int64       `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResult fills the page metadata from the normalized input.
func NewPaginatedResult(data []*Analysis, page, pageSize int, total int64) PaginatedResult {
	limit, offset := Page(page, pageSize)
	if data == nil {
		data = []*Analysis{}
	}
	return PaginatedResult{
		Data:       data,
		Page:       offset/limit + 1,
		PageSize:   limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}
