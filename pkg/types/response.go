// Package types holds the wire envelopes shared by every JSON endpoint.
package types

// SuccessEnvelope wraps a successful response payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failed request. Details carries
// field-level validation output when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for encoding.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
