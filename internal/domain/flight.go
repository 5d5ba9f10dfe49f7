package domain

import "time"

type Flight struct {
	ID             string
	Airline        string
	FromPlace      string
	ToPlace        string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	PriceCents     int64
	TotalSeats     int
	AvailableSeats int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
