package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/enums"
)

// Purchase is the aggregate root for stock intake. Total always equals the
// sum of its lines' subtotals.
type Purchase struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	SupplierID    uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null"`
	User          *User               `gorm:"foreignKey:UserID"`
	Supplier      *Supplier           `gorm:"foreignKey:SupplierID"`
	Lines         []PurchaseLine      `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
