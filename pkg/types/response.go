package types

// SuccessEnvelope wraps every successful API response body, so clients
// always unmarshal from the "data" key whether the payload is a booking,
// a report URL, or a list.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. Code is a stable machine
// readable string (VALIDATION_ERROR, CONFLICT, ...); Details carries
// field-level context only for codes that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError under the "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
