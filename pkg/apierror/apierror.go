package apierror

import "fmt"

// APIError pairs a wire-safe detail string with an HTTP status. Code is an
// internal diagnostic label; it is logged server-side but never written to
// the response body, which only ever carries Detail.
type APIError struct {
	Code       string `json:"code"`
	Detail     string `json:"detail"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func New(code string, detail string, status int) *APIError {
	return &APIError{Code: code, Detail: detail, HTTPStatus: status}
}
