package purchases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// ListFilter narrows purchase listings.
type ListFilter struct {
	UserID     *uuid.UUID
	SupplierID *uuid.UUID
	Limit      int
	Offset     int
}

// Repository persists purchase aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindWithLines(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, filter ListFilter) ([]models.Purchase, int64, error)
	SaveHeader(ctx context.Context, purchase *models.Purchase) error
	SaveLine(ctx context.Context, line *models.PurchaseLine) error
	CreateLines(ctx context.Context, lines []models.PurchaseLine) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("User").
		// Historical purchases still reference retired suppliers.
		Preload("Supplier", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Lines").
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindWithLines(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Purchase, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Purchase{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []models.Purchase
	err := query.
		Preload("User").
		Preload("Supplier", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Lines").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&purchases).Error
	if err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

func (r *repository) SaveHeader(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", purchase.ID).
		Updates(map[string]any{
			"payment_method": purchase.PaymentMethod,
			"supplier_id":    purchase.SupplierID,
			"total":          purchase.Total,
		}).Error
}

func (r *repository) SaveLine(ctx context.Context, line *models.PurchaseLine) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"subtotal":   line.Subtotal,
		}).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.PurchaseLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.PurchaseLine{}, "id = ?", lineID).Error
}
