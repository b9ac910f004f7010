package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// Repository persists the brand and product-line reference data.
type Repository interface {
	CreateBrand(ctx context.Context, brand *models.Brand) error
	ListBrands(ctx context.Context) ([]models.Brand, error)
	CreateProductLine(ctx context.Context, line *models.ProductLine) error
	ListProductLines(ctx context.Context) ([]models.ProductLine, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&brands).Error
	if err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *repository) CreateProductLine(ctx context.Context, line *models.ProductLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) ListProductLines(ctx context.Context) ([]models.ProductLine, error) {
	var lines []models.ProductLine
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
