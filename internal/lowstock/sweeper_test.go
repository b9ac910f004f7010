package lowstock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
)

type stubThresholdReader struct {
	products []models.Product
	err      error
}

func (s *stubThresholdReader) ListBelowThreshold(_ context.Context) ([]models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

type stubRecorder struct {
	events []enums.AuditEventType
}

func (s *stubRecorder) Record(_ context.Context, _ uuid.UUID, eventType enums.AuditEventType, _ string) {
	s.events = append(s.events, eventType)
}

func TestSweepAlertsProductsBelowThreshold(t *testing.T) {
	reader := &stubThresholdReader{products: []models.Product{
		{ID: uuid.New(), Name: "Shampoo", Stock: 2, LowStockAlert: 5},
		{ID: uuid.New(), Name: "Soap", Stock: 0, LowStockAlert: 3},
	}}
	recorder := &stubRecorder{}

	sweeper, err := NewSweeper(reader, recorder, nil, time.Minute)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(recorder.events) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(recorder.events))
	}
	for _, eventType := range recorder.events {
		if eventType != enums.AuditLowStockAlert {
			t.Fatalf("unexpected event type %s", eventType)
		}
	}
}

func TestSweepSuppressesRepeatAlertsAtSameLevel(t *testing.T) {
	productID := uuid.New()
	reader := &stubThresholdReader{products: []models.Product{
		{ID: productID, Name: "Shampoo", Stock: 2, LowStockAlert: 5},
	}}
	recorder := &stubRecorder{}

	sweeper, err := NewSweeper(reader, recorder, nil, time.Minute)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := sweeper.Sweep(context.Background()); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}
	if len(recorder.events) != 1 {
		t.Fatalf("expected a single alert for unchanged stock, got %d", len(recorder.events))
	}

	// Stock drops further: alert again.
	reader.products[0].Stock = 1
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep after drop: %v", err)
	}
	if len(recorder.events) != 2 {
		t.Fatalf("expected second alert after stock change, got %d", len(recorder.events))
	}
}

func TestSweepRealertsAfterRecovery(t *testing.T) {
	productID := uuid.New()
	reader := &stubThresholdReader{products: []models.Product{
		{ID: productID, Name: "Shampoo", Stock: 2, LowStockAlert: 5},
	}}
	recorder := &stubRecorder{}

	sweeper, err := NewSweeper(reader, recorder, nil, time.Minute)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	// Product recovers, leaves the below-threshold set.
	reader.products = nil
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("recovery sweep: %v", err)
	}

	// Falls below again at the same level: must alert anew.
	reader.products = []models.Product{{ID: productID, Name: "Shampoo", Stock: 2, LowStockAlert: 5}}
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("relapse sweep: %v", err)
	}

	if len(recorder.events) != 2 {
		t.Fatalf("expected re-alert after recovery, got %d events", len(recorder.events))
	}
}

func TestSweepPropagatesQueryError(t *testing.T) {
	reader := &stubThresholdReader{err: errors.New("timeout")}
	sweeper, err := NewSweeper(reader, &stubRecorder{}, nil, time.Minute)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	if err := sweeper.Sweep(context.Background()); err == nil {
		t.Fatal("expected error from failing reader")
	}
}
