package unitofwork

import (
	"context"

	"pharmacy-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductRepository() contract.ProductRepository
	CategoryRepository() contract.CategoryRepository
}
