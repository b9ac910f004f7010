package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielcastano/abasto-backend/api/responses"
	"github.com/danielcastano/abasto-backend/api/validators"
	auditsvc "github.com/danielcastano/abasto-backend/internal/audit"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

// ListAuditEvents returns a filtered page of the audit trail. Admin only,
// enforced at the route level.
func ListAuditEvents(svc auditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		filter, err := auditListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

func auditListFilter(r *http.Request) (auditsvc.ListFilter, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 50, 1, maxPageSize)
	if err != nil {
		return auditsvc.ListFilter{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return auditsvc.ListFilter{}, err
	}

	filter := auditsvc.ListFilter{Limit: limit, Offset: offset}
	query := r.URL.Query()

	if raw := query.Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return auditsvc.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
		}
		filter.UserID = &userID
	}
	if raw := query.Get("event_type"); raw != "" {
		eventType := enums.AuditEventType(raw)
		filter.EventType = &eventType
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return auditsvc.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp")
		}
		filter.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return auditsvc.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp")
		}
		filter.To = &to
	}
	return filter, nil
}
