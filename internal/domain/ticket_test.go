package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want TicketStatus
		ok   bool
	}{
		{raw: "New", want: TicketStatusNew, ok: true},
		{raw: "open", want: TicketStatusOpen, ok: true},
		{raw: "ON HOLD", want: TicketStatusOnHold, ok: true},
		{raw: "on-hold", want: TicketStatusOnHold, ok: true},
		{raw: "in-progress", want: TicketStatusInProgress, ok: true},
		{raw: " Closed  Today ", want: TicketStatusClosedToday, ok: true},
		{raw: "closed_today", want: TicketStatusClosedToday, ok: true},
		{raw: "Ongoing", want: TicketStatusOngoing, ok: true},
		{raw: "closed", ok: false},
		{raw: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCategory(t *testing.T) {
	got, ok := ParseCategory("technical-issue")
	require.True(t, ok)
	assert.Equal(t, CategoryTechnicalIssue, got)

	got, ok = ParseCategory("question")
	require.True(t, ok)
	assert.Equal(t, CategoryQuestion, got)

	_, ok = ParseCategory("Refund")
	assert.False(t, ok)
}

func TestCustomerViewDropsInternalMessages(t *testing.T) {
	ticket := &Ticket{
		TicketNumber: "ABC123",
		Messages: []Message{
			{ID: "1", Body: "hello"},
			{ID: "2", Body: "note", IsInternal: true},
			{ID: "3", Body: "reply"},
		},
	}

	view := ticket.CustomerView()

	require.Len(t, view.Messages, 2)
	assert.Equal(t, "1", view.Messages[0].ID)
	assert.Equal(t, "3", view.Messages[1].ID)
	assert.Len(t, ticket.Messages, 3, "original ticket must stay intact")
}

func TestCloneIsIndependent(t *testing.T) {
	agent := "Dana"
	ticket := &Ticket{AssignedAgent: &agent, Messages: []Message{{ID: "1"}}}

	c := ticket.Clone()
	*c.AssignedAgent = "Sam"
	c.Messages[0].Body = "changed"

	assert.Equal(t, "Dana", *ticket.AssignedAgent)
	assert.Empty(t, ticket.Messages[0].Body)
}

func TestIsCustomerSender(t *testing.T) {
	ticket := &Ticket{Username: "Jamie"}
	assert.True(t, ticket.IsCustomerSender(" jamie "))
	assert.False(t, ticket.IsCustomerSender("Admin"))
}
