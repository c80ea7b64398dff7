package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// sortableColumns lists the catalog_records columns OrderBy accepts.
var sortableColumns = map[string]struct{}{
	"created_at": {},
	"title":      {},
	"url":        {},
}

// OrderBy sorts by one whitelisted column; unknown columns are ignored.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	if _, ok := sortableColumns[s.Field]; !ok {
		return db
	}
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
