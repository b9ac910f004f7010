package controllers

import (
	"net/http"

	"github.com/danielcastano/abasto-backend/api/responses"
	"github.com/danielcastano/abasto-backend/api/validators"
	authsvc "github.com/danielcastano/abasto-backend/internal/auth"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

// Login authenticates a user and returns a bearer token.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
