package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier delivers a plain-text message to a single recipient. The
// production implementation speaks SMTP; dev mode writes to the log.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// FeedFrame is one entry on the live activity feed. Frames are pushed to
// connected websocket clients and are not persisted; a client that was
// offline catches up from the regular list endpoints.
type FeedFrame struct {
	Kind       string     `json:"kind"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	ClaimID    *uuid.UUID `json:"claim_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// FeedPusher fans frames out to feed subscribers. Pushes are
// fire-and-forget; slow or broken connections are the hub's problem.
type FeedPusher interface {
	// PushToUser delivers a frame to every connection the user has open
	PushToUser(userID uuid.UUID, frame FeedFrame)

	// PushToAdmins delivers a frame to the admin room
	PushToAdmins(frame FeedFrame)
}

// dollars renders a decimal amount the way it appears on a card
// statement. All platform money is USD.
func dollars(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// deadlineFormat is the layout for deadlines quoted in emails
const deadlineFormat = "Mon, Jan 2 2006 at 3:04 PM MST"
