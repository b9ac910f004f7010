package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
)

type stubAuditRepo struct {
	inserted  []*models.AuditEvent
	insertErr error
	events    []models.AuditEvent
	listErr   error
}

func (s *stubAuditRepo) Insert(_ context.Context, event *models.AuditEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, event)
	return nil
}

func (s *stubAuditRepo) List(_ context.Context, _ ListFilter) ([]models.AuditEvent, int64, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return s.events, int64(len(s.events)), nil
}

func TestRecordPersistsEvent(t *testing.T) {
	repo := &stubAuditRepo{}
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	userID := uuid.New()
	svc.Record(context.Background(), userID, enums.AuditPurchaseCreated, "purchase 123 registered")

	if len(repo.inserted) != 1 {
		t.Fatalf("expected one event, got %d", len(repo.inserted))
	}
	if repo.inserted[0].UserID == nil || *repo.inserted[0].UserID != userID {
		t.Fatalf("unexpected user id %v", repo.inserted[0].UserID)
	}
	if repo.inserted[0].EventType != enums.AuditPurchaseCreated {
		t.Fatalf("unexpected event type %s", repo.inserted[0].EventType)
	}
}

func TestRecordSwallowsRepositoryError(t *testing.T) {
	repo := &stubAuditRepo{insertErr: errors.New("connection reset")}
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	// Must not panic and must not surface the failure.
	svc.Record(context.Background(), uuid.New(), enums.AuditSaleCreated, "sale 456 registered")
}

func TestRecordIgnoresUnknownEventType(t *testing.T) {
	repo := &stubAuditRepo{}
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	svc.Record(context.Background(), uuid.New(), enums.AuditEventType("bogus"), "detail")

	if len(repo.inserted) != 0 {
		t.Fatalf("expected no events, got %d", len(repo.inserted))
	}
}

func TestListRejectsUnknownEventType(t *testing.T) {
	svc, err := NewService(&stubAuditRepo{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	bad := enums.AuditEventType("bogus")
	_, err = svc.List(context.Background(), ListFilter{EventType: &bad})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListClassifiesRepositoryFailure(t *testing.T) {
	svc, err := NewService(&stubAuditRepo{listErr: errors.New("timeout")}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.List(context.Background(), ListFilter{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
