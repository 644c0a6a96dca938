package runs

import (
	"errors"
	"net/http"

	"github.com/scorely/scorely/internal/gateway"
	"github.com/scorely/scorely/internal/profiles"
)

// Domain errors for run operations.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrNotFailed   = errors.New("run is not in a failed state")
	ErrRunActive   = errors.New("run is already executing")
)

// MapHTTPStatus maps run domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	var ve *profiles.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrRunNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrNotFailed) || errors.Is(err, ErrRunActive) {
		return http.StatusConflict
	}
	if errors.Is(err, gateway.ErrNotInitialized) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
