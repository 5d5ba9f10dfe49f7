package tickets

import (
	"context"

	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/Domenick1991/flightapp/internal/repository"
)

// ConflictChecker reports whether a candidate seat label is already held by an
// active reservation on a flight. The availability counter governs capacity;
// the held-set scan governs identity collisions. Neither substitutes for the
// other.
type ConflictChecker struct {
	tickets repository.TicketRepository
}

func NewConflictChecker(tickets repository.TicketRepository) *ConflictChecker {
	return &ConflictChecker{tickets: tickets}
}

// Check expects a duplicate-free candidate list; the booking engine rejects
// duplicate selections before calling it.
func (c *ConflictChecker) Check(ctx context.Context, flightID string, candidate []string) error {
	held, err := c.tickets.ActiveSeats(ctx, flightID)
	if err != nil {
		return err
	}
	heldSet := make(map[string]bool, len(held))
	for _, s := range held {
		heldSet[s] = true
	}
	for _, s := range candidate {
		if heldSet[s] {
			return &domain.SeatConflictError{Seat: s}
		}
	}
	return nil
}
