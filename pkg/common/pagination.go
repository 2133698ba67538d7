package common

// PageInfo locates one page within a listing of total rows.
type PageInfo struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

func NewPageInfo(total int64, page, limit int) PageInfo {
	info := PageInfo{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		info.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	info.HasMore = page < info.TotalPages
	return info
}
