package walletauth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoAccessToken is returned when a protected call is made without a token
var ErrNoAccessToken = errors.New("access token is required")

// FieldError points at an invalid request field
type FieldError struct {
	Path     string `json:"path"`
	Location string `json:"location"`
	Msg      string `json:"msg"`
}

// APIError is a non-2xx answer of the service
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("walletauth: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 answer, after which the caller
// has to refresh its access token or log in again
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 answer
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
