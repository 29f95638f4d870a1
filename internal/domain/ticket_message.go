package domain

import "time"

// Message captures one entry in a ticket conversation.
type Message struct {
	ID         string
	Sender     string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}

// MessageOrigin identifies which side of the conversation posted a message.
type MessageOrigin string

const (
	OriginCustomer MessageOrigin = "customer"
	OriginAdmin    MessageOrigin = "admin"
)
