package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Event is a single audit trail entry as returned by the query endpoint.
// UserID is absent for system events.
type Event struct {
	ID        uuid.UUID            `json:"id"`
	UserID    *uuid.UUID           `json:"user_id,omitempty"`
	EventType enums.AuditEventType `json:"event_type"`
	Detail    string               `json:"detail"`
	CreatedAt time.Time            `json:"created_at"`
}

// ListResponse wraps a page of audit events.
type ListResponse struct {
	Events []Event `json:"events"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Recorder is the write-side surface consumed by the stock engines. Writes
// happen after the owning transaction commits and never fail the request.
type Recorder interface {
	Record(ctx context.Context, userID uuid.UUID, eventType enums.AuditEventType, detail string)
}

// Service combines the recorder with the admin query surface.
type Service interface {
	Recorder
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds an audit service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, userID uuid.UUID, eventType enums.AuditEventType, detail string) {
	if !eventType.IsValid() {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"event_type": string(eventType)}), "audit.invalid_event_type")
		}
		return
	}

	event := &models.AuditEvent{
		EventType: eventType,
		Detail:    detail,
	}
	if userID != uuid.Nil {
		event.UserID = &userID
	}
	if err := s.repo.Insert(ctx, event); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_type": string(eventType),
			"user_id":    userID.String(),
		})
		s.logg.Warn(logCtx, "audit.write_failed")
	}
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.EventType != nil && !filter.EventType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown event type")
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit events")
	}

	resp := &ListResponse{
		Events: make([]Event, 0, len(events)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, Event{
			ID:        e.ID,
			UserID:    e.UserID,
			EventType: e.EventType,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp, nil
}
