package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/streeteats-connect/api/responses"
	"github.com/angelmondragon/streeteats-connect/api/validators"
	"github.com/angelmondragon/streeteats-connect/internal/wizard"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

type registrationStepRequest struct {
	Values wizard.Values `json:"values" validate:"required"`
}

type registrationStepResponse struct {
	Step     int  `json:"step"`
	Valid    bool `json:"valid"`
	NextStep int  `json:"next_step,omitempty"`
	Complete bool `json:"complete"`
}

// ValidateRegistrationStep checks one step (1-based) of the vendor
// registration wizard. Field errors come back as validation details keyed
// by field name.
func ValidateRegistrationStep(logg *logger.Logger) http.HandlerFunc {
	steps := wizard.RegistrationSteps()
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "step"))
		if err != nil || n < 1 || n > len(steps) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown registration step").
				WithDetails(map[string]any{"step": chi.URLParam(r, "step"), "steps": len(steps)}))
			return
		}

		var body registrationStepRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := wizard.ValidateStep(steps[n-1], body.Values)
		if !result.Valid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "please correct the highlighted fields").
				WithDetails(map[string]any{"step": n, "errors": result.Errors}))
			return
		}

		resp := registrationStepResponse{Step: n, Valid: true, Complete: n == len(steps)}
		if !resp.Complete {
			resp.NextStep = n + 1
		}
		responses.WriteSuccess(w, resp)
	}
}
