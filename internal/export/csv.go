package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const (
	ContentType = "text/csv; charset=utf-8"

	ticketHeader  = "Ticket Number,Category,Subject,Username,Email,Status,Assigned Agent,Created At,Updated At"
	messageHeader = "Timestamp,Sender,Message,Type"

	labelInternal = "Internal Note"
	labelPublic   = "Public"
)

// Filename is the attachment name for a ticket export.
func Filename(ticketNumber string) string {
	return fmt.Sprintf("ticket-%s.csv", ticketNumber)
}

// TicketCSV renders the ticket header row followed by every message, internal notes labeled.
// Every field is quoted so output is byte-stable for a given ticket.
func TicketCSV(t *domain.Ticket) []byte {
	agent := ""
	if t.AssignedAgent != nil {
		agent = *t.AssignedAgent
	}

	lines := make([]string, 0, len(t.Messages)+5)
	lines = append(lines,
		ticketHeader,
		row(t.TicketNumber, string(t.Category), t.Subject, t.Username, t.Email,
			string(t.Status), agent, timestamp(t.CreatedAt), timestamp(t.UpdatedAt)),
		"",
		"Messages:",
		messageHeader,
	)
	for _, msg := range t.Messages {
		label := labelPublic
		if msg.IsInternal {
			label = labelInternal
		}
		lines = append(lines, row(timestamp(msg.CreatedAt), msg.Sender, msg.Body, label))
	}
	return []byte(strings.Join(lines, "\n"))
}

func row(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
