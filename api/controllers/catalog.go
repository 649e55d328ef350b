package controllers

import (
	"net/http"

	"github.com/genericsdirect/dealtracker/api/responses"
	"github.com/genericsdirect/dealtracker/internal/catalog"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
)

// CatalogManufacturers lists the manufacturers a line item can be allocated to.
func CatalogManufacturers(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		manufacturers, err := svc.ListManufacturers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, manufacturers)
	}
}

func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
