package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/streeteats-connect/api/responses"
	"github.com/angelmondragon/streeteats-connect/api/validators"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/maps"
)

// SupplierLookup is the stateless search surface of suppliers.Service.
type SupplierLookup interface {
	Lookup(ctx context.Context, q suppliers.Query) (suppliers.Page, error)
}

type supplierSearchResponse struct {
	State     suppliers.State      `json:"state"`
	Term      string               `json:"term"`
	Title     string               `json:"title,omitempty"`
	Summary   string               `json:"summary"`
	Source    string               `json:"source"`
	Suppliers []suppliers.Supplier `json:"suppliers"`
}

// SearchSuppliers runs a one-off supplier search for q or category near
// lat/lng.
func SearchSuppliers(svc SupplierLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier search unavailable"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "lat", -90, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng", -180, 180)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (lat == nil) != (lng == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together"))
			return
		}

		q := suppliers.Query{
			Term:     validators.SanitizeString(r.URL.Query().Get("q"), 100),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
		}
		if lat != nil {
			q.Center = &maps.LatLng{Latitude: *lat, Longitude: *lng}
		}

		page, err := svc.Lookup(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found := page.Suppliers
		if found == nil {
			found = []suppliers.Supplier{}
		}
		responses.WriteSuccess(w, supplierSearchResponse{
			State:     page.State,
			Term:      page.Term,
			Title:     page.Title,
			Summary:   page.Summary,
			Source:    page.Source,
			Suppliers: found,
		})
	}
}
