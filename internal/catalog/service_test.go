package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
)

type stubCatalogRepo struct {
	brandErr error
	lineErr  error
	brands   []models.Brand
	lines    []models.ProductLine
}

func (s *stubCatalogRepo) CreateBrand(_ context.Context, brand *models.Brand) error {
	if s.brandErr != nil {
		return s.brandErr
	}
	s.brands = append(s.brands, *brand)
	return nil
}

func (s *stubCatalogRepo) ListBrands(_ context.Context) ([]models.Brand, error) {
	return s.brands, nil
}

func (s *stubCatalogRepo) CreateProductLine(_ context.Context, line *models.ProductLine) error {
	if s.lineErr != nil {
		return s.lineErr
	}
	s.lines = append(s.lines, *line)
	return nil
}

func (s *stubCatalogRepo) ListProductLines(_ context.Context) ([]models.ProductLine, error) {
	return s.lines, nil
}

func TestCreateBrandTrimsName(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	entry, err := svc.CreateBrand(context.Background(), CreateInput{Name: "  Acme  "})
	if err != nil {
		t.Fatalf("create brand: %v", err)
	}
	if entry.Name != "Acme" {
		t.Fatalf("expected trimmed name, got %q", entry.Name)
	}
}

func TestCreateBrandEmptyNameFailsValidation(t *testing.T) {
	svc, err := NewService(&stubCatalogRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CreateBrand(context.Background(), CreateInput{Name: "   "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateBrandDuplicateMapsToConflict(t *testing.T) {
	repo := &stubCatalogRepo{brandErr: errors.New(`duplicate key value violates unique constraint "idx_brands_name"`)}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CreateBrand(context.Background(), CreateInput{Name: "Acme"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreateProductLineDuplicateMapsToConflict(t *testing.T) {
	repo := &stubCatalogRepo{lineErr: errors.New("UNIQUE constraint failed: product_lines.name")}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CreateProductLine(context.Background(), CreateInput{Name: "Hair Care"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
