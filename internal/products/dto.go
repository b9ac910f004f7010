package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
)

// Response is the catalog view of a product returned by the read endpoints.
type Response struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	LowStockAlert int             `json:"low_stock_alert"`
	Brand         *NamedRef       `json:"brand,omitempty"`
	ProductLine   *NamedRef       `json:"product_line,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NamedRef is a compact id/name pair for related catalog entities.
type NamedRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ListResponse wraps a page of products.
type ListResponse struct {
	Products []Response `json:"products"`
	Total    int64      `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

func toResponse(p *models.Product) Response {
	resp := Response{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Stock:         p.Stock,
		LowStockAlert: p.LowStockAlert,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Brand != nil {
		resp.Brand = &NamedRef{ID: p.Brand.ID, Name: p.Brand.Name}
	}
	if p.ProductLine != nil {
		resp.ProductLine = &NamedRef{ID: p.ProductLine.ID, Name: p.ProductLine.Name}
	}
	return resp
}
