package domain

import (
	"errors"
	"time"
)

// ErrInvalidTransition signals a transition not permitted by the table.
var ErrInvalidTransition = errors.New("invalid status transition")

// allowedTransitions maps each status to the statuses reachable from it.
// CLOSED and CANCELLED are terminal; CLOSED is left only via Reopen.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusOnHold, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusOnHold, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled},
	TicketStatusOnHold:     {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled},
	TicketStatusResolved:   {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:     {},
	TicketStatusCancelled:  {},
}

// CanTransition reports whether next is reachable from current. A
// transition to the same status is always permitted; it is a logged no-op.
func CanTransition(current, next TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ApplyTransition mutates the ticket's status and derived timestamps.
// Entering RESOLVED stamps ResolvedAt, entering CLOSED stamps ClosedAt;
// neither is cleared except by Reopen. The previous status is returned so
// the caller can pair the change with a history entry and a conditional
// update.
func ApplyTransition(t *Ticket, next TicketStatus, now time.Time) (TicketStatus, error) {
	if !next.Valid() {
		return "", ErrInvalidTransition
	}
	if !CanTransition(t.Status, next) {
		return "", ErrInvalidTransition
	}
	previous := t.Status
	if previous == next {
		return previous, nil
	}
	t.Status = next
	switch next {
	case TicketStatusResolved:
		stamp := now
		t.ResolvedAt = &stamp
	case TicketStatusClosed:
		stamp := now
		t.ClosedAt = &stamp
	}
	return previous, nil
}

// Reopen moves a CLOSED ticket back to OPEN and clears both lifecycle
// timestamps. It is a distinct operation rather than a table edge because
// only privileged roles may invoke it.
func Reopen(t *Ticket) (TicketStatus, error) {
	if t.Status != TicketStatusClosed {
		return "", ErrInvalidTransition
	}
	previous := t.Status
	t.Status = TicketStatusOpen
	t.ResolvedAt = nil
	t.ClosedAt = nil
	return previous, nil
}
