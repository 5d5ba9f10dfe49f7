package domain

import (
	"strings"
	"time"
)

type TripType string

const (
	TripOneWay    TripType = "ONE_WAY"
	TripRoundTrip TripType = "ROUND_TRIP"
)

type Passenger struct {
	Name string
	Seat string
}

// Ticket is the durable reservation record. ReturnFlightID is empty for
// one-way trips. SeatsBooked keeps the comma-joined seat labels, one per
// passenger, in passenger order.
type Ticket struct {
	ID                string
	PNR               string
	UserID            string
	DepartureFlightID string
	ReturnFlightID    string
	TripType          TripType
	SeatsBooked       string
	TotalCents        int64
	BookingTime       time.Time
	Cancelled         bool
	Passengers        []Passenger
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t *Ticket) SeatList() []string {
	if t.SeatsBooked == "" {
		return nil
	}
	return strings.Split(t.SeatsBooked, ",")
}

// SeatCount falls back to 1 when the seat record is empty. The fallback is a
// defensive default, not a business rule.
func (t *Ticket) SeatCount() int {
	if t.SeatsBooked == "" {
		return 1
	}
	return len(t.SeatList())
}

func JoinSeats(passengers []Passenger) string {
	seats := make([]string, 0, len(passengers))
	for _, p := range passengers {
		seats = append(seats, p.Seat)
	}
	return strings.Join(seats, ",")
}
