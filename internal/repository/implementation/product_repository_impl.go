package implementation

import (
	"context"

	"pharmacy-assistant-be/internal/entity"
	"pharmacy-assistant-be/internal/mapper"
	"pharmacy-assistant-be/internal/model"
	"pharmacy-assistant-be/internal/repository/contract"
	"pharmacy-assistant-be/internal/repository/scope"
	"pharmacy-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ProductRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProductMapper
}

func NewProductRepository(db *gorm.DB) contract.ProductRepository {
	return &ProductRepositoryImpl{
		db:     db,
		mapper: mapper.NewProductMapper(),
	}
}

func (r *ProductRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProductRepositoryImpl) Create(ctx context.Context, product *entity.Product) error {
	m := r.mapper.ToModel(product)
	if err := r.db.WithContext(ctx).Omit("Category").Create(m).Error; err != nil {
		return err
	}
	name := product.CategoryName
	*product = *r.mapper.ToEntity(m)
	product.CategoryName = name
	return nil
}

func (r *ProductRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	var models []*model.Product
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.WithCategory), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProductRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Product{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type CategoryRepositoryImpl struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) contract.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) FirstOrCreate(ctx context.Context, name string) (*entity.Category, error) {
	m := model.Category{Name: name}
	if err := r.db.WithContext(ctx).Where(model.Category{Name: name}).FirstOrCreate(&m).Error; err != nil {
		return nil, err
	}
	return &entity.Category{Id: m.Id, Name: m.Name, CreatedAt: m.CreatedAt}, nil
}
