package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrMeetingNotFound = errors.New("meeting not found")
)
