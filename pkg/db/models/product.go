package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog entry whose stock counter the purchase and sale
// flows mutate. Stock may go negative; the engines decide when that is
// acceptable.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock         int             `gorm:"column:stock;not null;default:0"`
	LowStockAlert int             `gorm:"column:low_stock_alert;not null;default:5"`
	BrandID       uuid.UUID       `gorm:"column:brand_id;type:uuid;not null"`
	ProductLineID uuid.UUID       `gorm:"column:product_line_id;type:uuid;not null"`
	Brand         *Brand          `gorm:"foreignKey:BrandID"`
	ProductLine   *ProductLine    `gorm:"foreignKey:ProductLineID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt     gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
