package inquiries

import "errors"

var (
	// ErrInvalidName is returned when the name is missing.
	ErrInvalidName = errors.New("full_name is required")

	// ErrInvalidEmail is returned when the email is missing or malformed.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrEmptyMessage is returned when the message body is blank.
	ErrEmptyMessage = errors.New("message is required")
)
