package scope

import "gorm.io/gorm"

// WithCategory joins the product category so its name comes back with the row.
func WithCategory(db *gorm.DB) *gorm.DB {
	return db.Joins("Category")
}
