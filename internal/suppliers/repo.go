package suppliers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// Repository answers the supplier questions the purchase flow asks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindByID resolves a supplier whether or not it has been retired;
	// purchases reference suppliers regardless of soft-delete state.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	// LinkExists reports whether an active product-supplier link authorizes
	// the supplier to provide the product.
	LinkExists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a suppliers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		First(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) LinkExists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
