package domain

import "time"

// Reply is an append-only message on a ticket thread. Ticket and
// author references are immutable after creation; threads are ordered
// ascending by creation time.
type Reply struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
