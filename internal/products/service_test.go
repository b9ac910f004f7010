package products

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
)

type stubProductRepo struct {
	product    *models.Product
	findErr    error
	listErr    error
	lastFilter ListFilter
}

func (s *stubProductRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubProductRepo) FindActiveByID(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.product, nil
}

func (s *stubProductRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.product, nil
}

func (s *stubProductRepo) List(_ context.Context, filter ListFilter) ([]models.Product, int64, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	if s.product == nil {
		return nil, 0, nil
	}
	return []models.Product{*s.product}, 1, nil
}

func (s *stubProductRepo) ListBelowThreshold(_ context.Context) ([]models.Product, error) {
	return nil, nil
}

func TestGetRequiresID(t *testing.T) {
	svc, err := NewService(&stubProductRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.Nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetUnknownProductNotFound(t *testing.T) {
	svc, err := NewService(&stubProductRepo{findErr: gorm.ErrRecordNotFound})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListClampsPagingAndNormalizesSearch(t *testing.T) {
	repo := &stubProductRepo{product: &models.Product{ID: uuid.New(), Name: "Shampoo"}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	resp, err := svc.List(context.Background(), ListFilter{Limit: 9999, Offset: -3, Search: "  ShamPOO "})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if repo.lastFilter.Limit != maxListLimit {
		t.Fatalf("expected limit clamped to %d, got %d", maxListLimit, repo.lastFilter.Limit)
	}
	if repo.lastFilter.Offset != 0 {
		t.Fatalf("expected offset reset to 0, got %d", repo.lastFilter.Offset)
	}
	if repo.lastFilter.Search != "shampoo" {
		t.Fatalf("expected normalized search, got %q", repo.lastFilter.Search)
	}
	if resp.Total != 1 || len(resp.Products) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListRepoFailureIsDependency(t *testing.T) {
	svc, err := NewService(&stubProductRepo{listErr: errors.New("timeout")})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.List(context.Background(), ListFilter{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
