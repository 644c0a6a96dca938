package profiles

import (
	"errors"
	"net/http"
)

// Domain errors for profile operations.
var (
	ErrNotFound  = errors.New("profile not found")
	ErrDuplicate = errors.New("profile already recorded for run")
)

// MapHTTPStatus maps profile domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
