package mapper

import (
	"time"

	"pharmacy-assistant-be/internal/entity"
	"pharmacy-assistant-be/internal/model"
	"pharmacy-assistant-be/pkg/assistant/inventory"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductMapper struct{}

func NewProductMapper() *ProductMapper {
	return &ProductMapper{}
}

func (m *ProductMapper) ToEntity(p *model.Product) *entity.Product {
	if p == nil {
		return nil
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var expiry *time.Time
	if p.ExpiryDate != nil {
		t := time.Time(*p.ExpiryDate)
		expiry = &t
	}

	var categoryName string
	if p.Category != nil {
		categoryName = p.Category.Name
	}

	return &entity.Product{
		Id:           p.Id,
		Name:         p.Name,
		BrandName:    p.BrandName,
		GenericName:  p.GenericName,
		DosageForm:   p.DosageForm,
		Strength:     p.Strength,
		CategoryId:   p.CategoryId,
		CategoryName: categoryName,
		Stock:        p.Stock,
		Price:        p.Price,
		ExpiryDate:   expiry,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    p.DeletedAt.Valid,
	}
}

func (m *ProductMapper) ToModel(p *entity.Product) *model.Product {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	var expiry *datatypes.Date
	if p.ExpiryDate != nil {
		d := datatypes.Date(*p.ExpiryDate)
		expiry = &d
	}

	return &model.Product{
		Id:          p.Id,
		Name:        p.Name,
		BrandName:   p.BrandName,
		GenericName: p.GenericName,
		DosageForm:  p.DosageForm,
		Strength:    p.Strength,
		CategoryId:  p.CategoryId,
		Stock:       p.Stock,
		Price:       p.Price,
		ExpiryDate:  expiry,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *ProductMapper) ToEntities(products []*model.Product) []*entity.Product {
	entities := make([]*entity.Product, len(products))
	for i, p := range products {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

// ToInventory converts to the read model the assistant pipeline consumes.
func (m *ProductMapper) ToInventory(p *entity.Product) inventory.Product {
	return inventory.Product{
		ID:           p.Id.String(),
		Name:         p.Name,
		BrandName:    p.BrandName,
		GenericName:  p.GenericName,
		DosageForm:   p.DosageForm,
		Strength:     p.Strength,
		CategoryName: p.CategoryName,
		Stock:        p.Stock,
		Price:        p.Price,
		ExpiryDate:   p.ExpiryDate,
	}
}

func (m *ProductMapper) ToInventoryProducts(products []*entity.Product) []inventory.Product {
	out := make([]inventory.Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		out = append(out, m.ToInventory(p))
	}
	return out
}
