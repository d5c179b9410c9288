package entity

// Page is the pagination envelope carried by list responses. A zero Page
// means the response carried no envelope and the prior window should be
// preserved.
type Page struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// IsZero reports whether the envelope is absent.
func (p Page) IsZero() bool {
	return p == Page{}
}
