package contract

import (
	"context"

	"pharmacy-assistant-be/internal/entity"
	"pharmacy-assistant-be/internal/repository/specification"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type CategoryRepository interface {
	// FirstOrCreate returns the category with this name, creating it if needed.
	FirstOrCreate(ctx context.Context, name string) (*entity.Category, error)
}
