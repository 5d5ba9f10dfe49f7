package repository

import (
	"testing"

	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewTicketRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewTicketRepository(pool)
	assert.NotNil(t, repo)
}

func TestTicketLegs(t *testing.T) {
	oneWay := ticketLegs(&domain.Ticket{DepartureFlightID: "F1"})
	assert.Len(t, oneWay, 1)
	assert.Equal(t, "F1", oneWay[0].flightID)
	assert.Equal(t, domain.LegDeparture, oneWay[0].leg)

	roundTrip := ticketLegs(&domain.Ticket{DepartureFlightID: "F1", ReturnFlightID: "F2"})
	assert.Len(t, roundTrip, 2)
	assert.Equal(t, "F2", roundTrip[1].flightID)
	assert.Equal(t, domain.LegReturn, roundTrip[1].leg)
}
