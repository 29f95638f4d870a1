package service

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultTicketNumberLength is the number of hex characters in a ticket number.
const DefaultTicketNumberLength = 8

// NumberGenerator yields candidate ticket numbers. Uniqueness is enforced by the store.
type NumberGenerator func() string

// NewTicketNumberGenerator returns uppercase hex tokens drawn from random UUIDs.
// length is clamped to [4, 32].
func NewTicketNumberGenerator(length int) NumberGenerator {
	switch {
	case length <= 0:
		length = DefaultTicketNumberLength
	case length < 4:
		length = 4
	case length > 32:
		length = 32
	}
	return func() string {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		return strings.ToUpper(token[:length])
	}
}

// normalizeNumber canonicalizes a caller-supplied ticket number before any
// store or ephemeral lookup.
func normalizeNumber(raw string) string {
	return strings.TrimSpace(raw)
}
