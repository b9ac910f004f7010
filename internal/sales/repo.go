package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

// Repository persists sale aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindWithLines(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, filter ListFilter) ([]models.Sale, int64, error)
	SaveHeader(ctx context.Context, sale *models.Sale) error
	SaveLine(ctx context.Context, line *models.SaleLine) error
	CreateLines(ctx context.Context, lines []models.SaleLine) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Lines").
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindWithLines(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Sale{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.Sale
	err := query.
		Preload("User").
		Preload("Lines").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *repository) SaveHeader(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"payment_method": sale.PaymentMethod,
			"total":          sale.Total,
		}).Error
}

func (r *repository) SaveLine(ctx context.Context, line *models.SaleLine) error {
	return r.db.WithContext(ctx).
		Model(&models.SaleLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"subtotal":   line.Subtotal,
		}).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.SaleLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.SaleLine{}, "id = ?", lineID).Error
}
