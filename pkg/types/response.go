package types

// SuccessEnvelope wraps every non-legacy success body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the {"error": {...}} body of a failed request.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
