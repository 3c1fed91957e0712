package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func badQuery(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

// ParseQueryInt returns def when key is absent.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badQuery(key, "query parameter must be a whole number", nil)
	}
	if n < min || n > max {
		return 0, badQuery(key, "query parameter out of range", map[string]any{"min": min, "max": max})
	}
	return n, nil
}

// ParseQueryFloat returns nil when key is absent.
func ParseQueryFloat(r *http.Request, key string, min, max float64) (*float64, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, badQuery(key, "query parameter must be numeric", nil)
	}
	if f < min || f > max {
		return nil, badQuery(key, "query parameter out of range", map[string]any{"min": min, "max": max})
	}
	return &f, nil
}

// ParseQueryBool accepts the strconv.ParseBool spellings plus yes/no and
// on/off as sent by HTML checkboxes.
func ParseQueryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := strings.ToLower(queryValue(r, key))
	switch raw {
	case "":
		return def, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badQuery(key, "query parameter must be true or false", nil)
	}
	return b, nil
}
