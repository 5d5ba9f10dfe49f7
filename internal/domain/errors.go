package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrFlightNotFound           = errors.New("flight not found")
	ErrPNRNotFound              = errors.New("pnr not found")
	ErrDuplicateSeatSelection   = errors.New("duplicate seat numbers selected")
	ErrCancellationWindowClosed = errors.New("cannot cancel ticket less than 24 hours before departure")
	ErrNoPassengers             = errors.New("at least one passenger is required")
	ErrTripLegMismatch          = errors.New("return flight does not match trip type")
	ErrUnknownTripType          = errors.New("unknown trip type")

	// ErrTicketCancelled reports a cancel of an already-cancelled ticket. The
	// service layer turns it into a success message; the mutation is never
	// re-applied.
	ErrTicketCancelled = errors.New("ticket already cancelled")

	// ErrPNRTaken reports a confirmation-code collision on insert. The booking
	// engine retries once with a fresh code.
	ErrPNRTaken = errors.New("pnr already taken")
)

type Leg string

const (
	LegDeparture Leg = "departure"
	LegReturn    Leg = "return"
)

type SeatConflictError struct {
	Seat string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s is already booked", e.Seat)
}

type InsufficientSeatsError struct {
	Leg Leg
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("not enough seats in %s flight", e.Leg)
}
