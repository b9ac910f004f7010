package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/danielcastano/abasto-backend/api/responses"
	"github.com/danielcastano/abasto-backend/api/validators"
	productsvc "github.com/danielcastano/abasto-backend/internal/products"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

// GetProduct returns a single product, including soft-deleted ones.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// ListProducts returns a filtered page of active products.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := productsvc.ListFilter{
			Search: r.URL.Query().Get("search"),
			Limit:  limit,
			Offset: offset,
		}
		if raw := r.URL.Query().Get("brand_id"); raw != "" {
			brandID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid brand id"))
				return
			}
			filter.BrandID = &brandID
		}
		if raw := r.URL.Query().Get("line_id"); raw != "" {
			lineID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product line id"))
				return
			}
			filter.ProductLineID = &lineID
		}

		resp, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
