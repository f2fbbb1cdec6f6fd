package service

import "gorm.io/gorm"

// Page is a limit/offset window. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// NewPage converts a 1-based page number and page size into a window.
func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 0 {
		size = 0
	}
	return Page{Limit: size, Offset: (page - 1) * size}
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}
