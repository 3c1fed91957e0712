package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
)

// codes whose own message is safe to show; the rest use the generic text.
var publicCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:   true,
	pkgerrors.CodeUnauthorized: true,
	pkgerrors.CodeNotFound:     true,
	pkgerrors.CodeConflict:     true,
	pkgerrors.CodeIdempotency:  true,
	pkgerrors.CodeRateLimit:    true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	write(w, status, "application/json", types.SuccessEnvelope{Data: data})
}

// WriteJSON skips the envelope. The /orders/api endpoints answer in the
// flat shape their clients parse.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	write(w, status, "application/json", payload)
}

func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	write(w, status, "text/html; charset=utf-8", body)
}

func StatusFor(err error) int {
	return pkgerrors.MetadataFor(classify(err).Code()).HTTPStatus
}

// PublicMessage never exposes the message of an internal or dependency
// error.
func PublicMessage(err error) string {
	typed := classify(err)
	if publicCodes[typed.Code()] && typed.Message() != "" {
		return typed.Message()
	}
	return pkgerrors.MetadataFor(typed.Code()).PublicMessage
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := classify(err)
	meta := pkgerrors.MetadataFor(typed.Code())

	body := types.APIError{
		Code:      string(typed.Code()),
		Message:   PublicMessage(typed),
		RequestID: chimw.GetReqID(ctx),
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}

	LogError(ctx, logg, err)
	write(w, meta.HTTPStatus, "application/json", types.ErrorEnvelope{Error: body})
}

// LogError logs err with its code chain and postgres diagnostics.
func LogError(ctx context.Context, logg *logger.Logger, err error) {
	if logg == nil || err == nil {
		return
	}
	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
	}
	if dump.PG != nil {
		fields["pg"] = dump.PG
	}
	if details, ok := pkgerrors.As(err).Details().(map[string]any); ok && details["step"] != nil {
		fields["step"] = details["step"]
	}
	logg.Error(logg.WithFields(ctx, fields), "request.error", err)
}

func classify(err error) *pkgerrors.Error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
}

func write(w http.ResponseWriter, status int, contentType string, payload any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	var err error
	if raw, ok := payload.([]byte); ok {
		_, err = w.Write(raw)
	} else {
		err = json.NewEncoder(w).Encode(payload)
	}
	if err != nil {
		// headers are gone; the client sees a truncated body.
		log.Error().Err(err).Int("status", status).Msg("write response")
	}
}
