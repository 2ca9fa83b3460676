package specification

import "gorm.io/gorm"

// Specification narrows or orders an inventory query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Where is a bare condition on the products table.
type Where struct {
	Query string
	Args  []interface{}
}

func (s Where) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(s.Query, s.Args...)
}
