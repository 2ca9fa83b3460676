package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmacy-assistant-be/internal/mapper"
	"pharmacy-assistant-be/internal/repository/specification"
	"pharmacy-assistant-be/internal/repository/unitofwork"
	"pharmacy-assistant-be/pkg/assistant/inventory"
)

const defaultInventoryLimit = 5

// inventoryService is the read-only stock lookup the pipeline consumes.
type inventoryService struct {
	uowFactory unitofwork.RepositoryFactory
	mapper     *mapper.ProductMapper
	now        func() time.Time
}

func NewInventoryService(uowFactory unitofwork.RepositoryFactory) inventory.Lookup {
	return &inventoryService{
		uowFactory: uowFactory,
		mapper:     mapper.NewProductMapper(),
		now:        time.Now,
	}
}

func (s *inventoryService) Search(ctx context.Context, term string, limit int) ([]inventory.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultInventoryLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.ProductRepository().FindAll(ctx, specification.Sellable(term, s.now(), limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products for %q: %w", term, err)
	}
	return s.mapper.ToInventoryProducts(rows), nil
}
