package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// LineInput is a product/quantity pair submitted by the client. Unit prices
// are never accepted from the outside; they are snapshotted from the catalog.
type LineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateInput carries a new purchase.
type CreateInput struct {
	UserID        uuid.UUID   `json:"user_id" validate:"required"`
	SupplierID    uuid.UUID   `json:"supplier_id" validate:"required"`
	PaymentMethod string      `json:"payment_method" validate:"required"`
	Lines         []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// UpdateInput carries a partial purchase update. A nil Lines slice leaves the
// line set untouched; a non-nil slice is the complete desired state.
type UpdateInput struct {
	SupplierID    *uuid.UUID  `json:"supplier_id"`
	PaymentMethod *string     `json:"payment_method"`
	Lines         []LineInput `json:"lines" validate:"omitempty,min=1,dive"`

	ActorID uuid.UUID `json:"-"`
}

// UserRef identifies the employee who registered the purchase.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// SupplierRef identifies the supplying vendor.
type SupplierRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LineResponse is the API view of a persisted purchase line.
type LineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Response is the API view of a purchase aggregate.
type Response struct {
	ID            uuid.UUID       `json:"id"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	User          *UserRef        `json:"user,omitempty"`
	Supplier      *SupplierRef    `json:"supplier,omitempty"`
	Lines         []LineResponse  `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListResponse wraps a page of purchases.
type ListResponse struct {
	Purchases []Response `json:"purchases"`
	Total     int64      `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

func toResponse(p *models.Purchase) *Response {
	resp := &Response{
		ID:            p.ID,
		PaymentMethod: string(p.PaymentMethod),
		Total:         p.Total,
		Lines:         make([]LineResponse, 0, len(p.Lines)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.User != nil {
		resp.User = &UserRef{ID: p.User.ID, Email: p.User.Email}
	}
	if p.Supplier != nil {
		resp.Supplier = &SupplierRef{ID: p.Supplier.ID, Name: p.Supplier.Name}
	}
	for _, line := range p.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
	}
	return resp
}
