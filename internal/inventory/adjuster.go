package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

// Adjuster applies signed stock deltas inside a caller-owned transaction.
// It never rejects a delta on business grounds; sufficiency checks belong
// to the calling engine, which sees the stock level before the write.
type Adjuster struct {
	logg *logger.Logger
}

// NewAdjuster builds a stock adjuster.
func NewAdjuster(logg *logger.Logger) *Adjuster {
	return &Adjuster{logg: logg}
}

// Adjust adds delta to the product's stock counter and returns the updated
// row. The product must be active; adjustments against deleted products fail
// with a validation error.
func (a *Adjuster) Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) (*models.Product, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction handle required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must be non-zero")
	}

	var product models.Product
	err := tx.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found or inactive", productID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for adjustment")
	}

	product.Stock += delta
	if err := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", product.Stock).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist stock adjustment")
	}

	if product.Stock < 0 && a.logg != nil {
		logCtx := a.logg.WithFields(ctx, map[string]any{
			"product_id": productID.String(),
			"stock":      product.Stock,
			"delta":      delta,
		})
		a.logg.Warn(logCtx, "inventory.stock.negative")
	}

	return &product, nil
}
