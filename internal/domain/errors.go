package domain

import "errors"

var (
	// ErrNotFound is returned when a ticket or message does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateTicketNumber is returned when a generated ticket number is already taken.
	ErrDuplicateTicketNumber = errors.New("duplicate ticket number")
)
