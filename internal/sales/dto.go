package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// LineInput is a product/quantity pair submitted by the client. Unit prices
// are snapshotted from the catalog at sale time.
type LineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateInput carries a new sale.
type CreateInput struct {
	UserID        uuid.UUID   `json:"user_id" validate:"required"`
	PaymentMethod string      `json:"payment_method" validate:"required"`
	Lines         []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// UpdateInput carries a sale update. The line list is mandatory: a partial
// payload cannot distinguish an omitted line from an intended deletion.
type UpdateInput struct {
	PaymentMethod *string     `json:"payment_method"`
	Lines         []LineInput `json:"lines" validate:"omitempty,min=1,dive"`

	ActorID uuid.UUID `json:"-"`
}

// UserRef identifies the employee who registered the sale.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// LineResponse is the API view of a persisted sale line.
type LineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Response is the API view of a sale aggregate.
type Response struct {
	ID            uuid.UUID       `json:"id"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	User          *UserRef        `json:"user,omitempty"`
	Lines         []LineResponse  `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListResponse wraps a page of sales.
type ListResponse struct {
	Sales  []Response `json:"sales"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func toResponse(s *models.Sale) *Response {
	resp := &Response{
		ID:            s.ID,
		PaymentMethod: string(s.PaymentMethod),
		Total:         s.Total,
		Lines:         make([]LineResponse, 0, len(s.Lines)),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.User != nil {
		resp.User = &UserRef{ID: s.User.ID, Email: s.User.Email}
	}
	for _, line := range s.Lines {
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
