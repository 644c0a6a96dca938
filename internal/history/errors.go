package history

import (
	"errors"
	"net/http"
)

// Domain errors for history operations.
var (
	ErrNotFound  = errors.New("history entry not found")
	ErrDuplicate = errors.New("history entry already recorded for task")
)

// MapHTTPStatus maps history domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
