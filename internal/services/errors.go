package services

import (
	"errors"
	"fmt"

	"github.com/psg-placement/chat-service/internal/moderation"
)

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// status codes; the socket session maps them to error events.
var (
	// ErrNotFound covers any missing resource other than groups
	ErrNotFound = errors.New("resource not found")

	// ErrGroupNotFound is returned for operations against unknown groups
	ErrGroupNotFound = errors.New("group not found")

	// ErrAccessDenied is returned when the caller is not allowed to read or
	// write the group.
	ErrAccessDenied = errors.New("access denied")
)

// ModerationBlockedError is returned when a message was stopped by content
// moderation. The verdict carries the flagged categories and the reason so
// the caller can tell the sender what happened.
type ModerationBlockedError struct {
	Verdict moderation.Verdict
}

func (e *ModerationBlockedError) Error() string {
	if e.Verdict.Reason != "" {
		return fmt.Sprintf("message blocked by moderation: %s", e.Verdict.Reason)
	}
	return "message blocked by moderation"
}

// IsModerationBlocked unwraps a ModerationBlockedError if err carries one
func IsModerationBlocked(err error) (*ModerationBlockedError, bool) {
	var blocked *ModerationBlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}
