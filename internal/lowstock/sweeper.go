package lowstock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/danielcastano/abasto-backend/internal/audit"
	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

type thresholdReader interface {
	ListBelowThreshold(ctx context.Context) ([]models.Product, error)
}

// Sweeper periodically flags products whose stock fell to or below their
// alert threshold. Alerts land in the audit trail and the log; the sweep
// never mutates stock.
type Sweeper struct {
	products thresholdReader
	audit    audit.Recorder
	logg     *logger.Logger
	interval time.Duration

	// lastAlerted suppresses repeat alerts for a product until its stock
	// recovers above the threshold at least once.
	lastAlerted map[uuid.UUID]int
}

// NewSweeper builds a low-stock sweeper.
func NewSweeper(products thresholdReader, auditor audit.Recorder, logg *logger.Logger, interval time.Duration) (*Sweeper, error) {
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Sweeper{
		products:    products,
		audit:       auditor,
		logg:        logg,
		interval:    interval,
		lastAlerted: make(map[uuid.UUID]int),
	}, nil
}

// Run blocks and sweeps on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{"error": err.Error()})
				s.logg.Warn(logCtx, "lowstock.sweep_failed")
			}
		}
	}
}

// Sweep runs one pass. Per-product failures are collected, not short-circuited.
func (s *Sweeper) Sweep(ctx context.Context) error {
	products, err := s.products.ListBelowThreshold(ctx)
	if err != nil {
		return fmt.Errorf("query products below threshold: %w", err)
	}

	current := make(map[uuid.UUID]bool, len(products))
	var errs []error

	for i := range products {
		product := &products[i]
		current[product.ID] = true

		if last, ok := s.lastAlerted[product.ID]; ok && last == product.Stock {
			continue
		}
		s.lastAlerted[product.ID] = product.Stock

		if err := s.alert(ctx, product); err != nil {
			errs = append(errs, fmt.Errorf("alert for product %s: %w", product.ID, err))
		}
	}

	for id := range s.lastAlerted {
		if !current[id] {
			delete(s.lastAlerted, id)
		}
	}

	return multierr.Combine(errs...)
}

func (s *Sweeper) alert(ctx context.Context, product *models.Product) error {
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": product.ID.String(),
			"stock":      product.Stock,
			"threshold":  product.LowStockAlert,
		})
		s.logg.Warn(logCtx, "lowstock.alert")
	}

	s.audit.Record(ctx, uuid.Nil, enums.AuditLowStockAlert,
		fmt.Sprintf("product %s stock %d at or below threshold %d", product.Name, product.Stock, product.LowStockAlert))
	return nil
}
