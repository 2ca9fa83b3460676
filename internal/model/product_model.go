package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string         `gorm:"type:varchar(120);not null;uniqueIndex"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"type:varchar(255);not null;index"`
	BrandName   string          `gorm:"type:varchar(255)"`
	GenericName string          `gorm:"type:varchar(255);index"`
	DosageForm  string          `gorm:"type:varchar(60)"`
	Strength    string          `gorm:"type:varchar(60)"`
	CategoryId  *uuid.UUID      `gorm:"type:uuid;index"`
	Category    *Category       `gorm:"foreignKey:CategoryId"`
	Stock       int             `gorm:"not null;default:0"`
	Price       float64         `gorm:"type:numeric(12,2);not null;default:0"`
	ExpiryDate  *datatypes.Date `gorm:"index"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}
