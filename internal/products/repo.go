package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// ListFilter narrows product listings.
type ListFilter struct {
	BrandID       *uuid.UUID
	ProductLineID *uuid.UUID
	Search        string
	Limit         int
	Offset        int
}

// Repository exposes product reads for the catalog and the stock engines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	ListBelowThreshold(ctx context.Context) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Brand").
		Preload("ProductLine").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.ProductLineID != nil {
		query = query.Where("product_line_id = ?", *filter.ProductLineID)
	}
	if filter.Search != "" {
		query = query.Where("lower(name) LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := query.
		Preload("Brand").
		Preload("ProductLine").
		Order("name ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListBelowThreshold(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Where("stock <= low_stock_alert").
		Order("stock ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
