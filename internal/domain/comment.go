package domain

import "time"

// Comment captures communication on a ticket. Internal comments are
// visible to staff only and never reach clients or notification fan-out.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	Internal  bool
	CreatedAt time.Time
}
