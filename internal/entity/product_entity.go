package entity

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	Id           uuid.UUID
	Name         string
	BrandName    string
	GenericName  string
	DosageForm   string
	Strength     string
	CategoryId   *uuid.UUID
	CategoryName string
	Stock        int
	Price        float64
	ExpiryDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

type Category struct {
	Id        uuid.UUID
	Name      string
	CreatedAt time.Time
}
