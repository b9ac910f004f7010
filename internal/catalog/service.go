package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/abasto-backend/pkg/db"
	"github.com/danielcastano/abasto-backend/pkg/db/models"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
)

// Entry is the API view of a brand or a product line.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries the name for a new brand or product line.
type CreateInput struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// Service manages the brand and product-line reference data.
type Service interface {
	CreateBrand(ctx context.Context, input CreateInput) (*Entry, error)
	ListBrands(ctx context.Context) ([]Entry, error)
	CreateProductLine(ctx context.Context, input CreateInput) (*Entry, error)
	ListProductLines(ctx context.Context) ([]Entry, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateBrand(ctx context.Context, input CreateInput) (*Entry, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand name required")
	}

	brand := &models.Brand{Name: name}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "brand already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	return &Entry{ID: brand.ID, Name: brand.Name, CreatedAt: brand.CreatedAt}, nil
}

func (s *service) ListBrands(ctx context.Context) ([]Entry, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	entries := make([]Entry, 0, len(brands))
	for _, b := range brands {
		entries = append(entries, Entry{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt})
	}
	return entries, nil
}

func (s *service) CreateProductLine(ctx context.Context, input CreateInput) (*Entry, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product line name required")
	}

	line := &models.ProductLine{Name: name}
	if err := s.repo.CreateProductLine(ctx, line); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product line already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product line")
	}
	return &Entry{ID: line.ID, Name: line.Name, CreatedAt: line.CreatedAt}, nil
}

func (s *service) ListProductLines(ctx context.Context) ([]Entry, error) {
	lines, err := s.repo.ListProductLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product lines")
	}
	entries := make([]Entry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, Entry{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt})
	}
	return entries, nil
}
