package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductSupplier authorizes a supplier to provide a product. A purchase line
// is only accepted when an active link exists for its (product, supplier) pair.
type ProductSupplier struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID      `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_supplier"`
	SupplierID   uuid.UUID      `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:idx_product_supplier"`
	SupplierCode string         `gorm:"column:supplier_code;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (ps *ProductSupplier) BeforeCreate(*gorm.DB) error {
	if ps.ID == uuid.Nil {
		ps.ID = uuid.New()
	}
	return nil
}
