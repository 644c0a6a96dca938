package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInitialized indicates the gateway probe has not completed.
	ErrNotInitialized = errors.New("gateway not initialized")
	// ErrNoIdentity indicates no requester address is configured.
	ErrNoIdentity = errors.New("no requester identity configured")
)

// ComputationError is a hard failure reported by the remote application
// itself, either through its error artifact or an embedded failure payload.
// The message is preserved verbatim.
type ComputationError struct {
	Message string
}

func (e *ComputationError) Error() string {
	return e.Message
}

// MalformedOutputError indicates the result bundle contained neither a
// recognized result artifact nor an error artifact. Files lists the entries
// that were actually present, for diagnosis.
type MalformedOutputError struct {
	Files []string
}

func (e *MalformedOutputError) Error() string {
	if len(e.Files) == 0 {
		return "result bundle is empty"
	}
	return fmt.Sprintf(
		"result bundle contains no result.json or error.json; found: %s",
		strings.Join(e.Files, ", "),
	)
}
