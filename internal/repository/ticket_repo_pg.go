package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// Book persists the reservation and the matching inventory decrements as a
	// single transaction. It re-checks seat conflicts and capacity under row
	// locks, so two bookers of the same flight serialize here even across
	// process instances.
	Book(ctx context.Context, ticket *domain.Ticket) error
	// Cancel flips the cancelled flag and restores every touched leg's
	// inventory in one transaction. Returns domain.ErrTicketCancelled when the
	// flag was already set; no restoration happens in that case.
	Cancel(ctx context.Context, ticket *domain.Ticket) error
	GetByPNR(ctx context.Context, pnr string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	// ActiveSeats returns the seat labels held by non-cancelled tickets that
	// reference the flight on either leg.
	ActiveSeats(ctx context.Context, flightID string) ([]string, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `id, pnr, user_id, departure_flight_id, COALESCE(return_flight_id, ''), trip_type, seats_booked, total_cents, booking_time, cancelled, created_at, updated_at`

func (r *PGTicketRepository) Book(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	legs := ticketLegs(ticket)
	seatCount := len(ticket.Passengers)

	// Lock flight rows in id order so concurrent bookings and cancellations
	// touching the same flights cannot deadlock.
	ids := make([]string, 0, len(legs))
	for _, l := range legs {
		ids = append(ids, l.flightID)
	}
	rows, err := tx.Query(ctx, `SELECT id FROM flights WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	locked := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		locked[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if !locked[id] {
			return domain.ErrFlightNotFound
		}
	}

	for _, l := range legs {
		if err := checkHeldSeats(ctx, tx, l.flightID, ticket.SeatList()); err != nil {
			return err
		}
	}

	for _, l := range legs {
		res, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now() WHERE id=$1 AND available_seats >= $2`, l.flightID, seatCount)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return &domain.InsufficientSeatsError{Leg: l.leg}
		}
	}

	var returnID any
	if ticket.ReturnFlightID != "" {
		returnID = ticket.ReturnFlightID
	}
	if err := tx.QueryRow(ctx, `INSERT INTO tickets (pnr, user_id, departure_flight_id, return_flight_id, trip_type, seats_booked, total_cents, booking_time, cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		RETURNING id, created_at, updated_at`,
		ticket.PNR, ticket.UserID, ticket.DepartureFlightID, returnID, ticket.TripType, ticket.SeatsBooked, ticket.TotalCents, ticket.BookingTime).
		Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "pnr") {
			return domain.ErrPNRTaken
		}
		return err
	}

	for _, p := range ticket.Passengers {
		if _, err := tx.Exec(ctx, `INSERT INTO passengers (ticket_id, name, seat) VALUES ($1, $2, $3)`, ticket.ID, p.Name, p.Seat); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGTicketRepository) Cancel(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Flip the flag first, guarded on cancelled=false. A concurrent cancel of
	// the same PNR loses here and never reaches the restoration below.
	res, err := tx.Exec(ctx, `UPDATE tickets SET cancelled = true, updated_at = now() WHERE pnr=$1 AND cancelled = false`, ticket.PNR)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrTicketCancelled
	}

	seatCount := ticket.SeatCount()
	for _, l := range ticketLegs(ticket) {
		res, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, l.flightID, seatCount)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return domain.ErrFlightNotFound
		}
	}

	ticket.Cancelled = true
	return tx.Commit(ctx)
}

func (r *PGTicketRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE pnr=$1`, pnr)
	var t domain.Ticket
	if err := scanTicket(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPNRNotFound
		}
		return nil, err
	}
	if err := r.loadPassengers(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTicketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE user_id=$1 ORDER BY booking_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range tickets {
		if err := r.loadPassengers(ctx, &tickets[i]); err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

func (r *PGTicketRepository) ActiveSeats(ctx context.Context, flightID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT seats_booked FROM tickets WHERE (departure_flight_id=$1 OR return_flight_id=$1) AND cancelled = false`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var held []string
	for rows.Next() {
		var seats string
		if err := rows.Scan(&seats); err != nil {
			return nil, err
		}
		if seats != "" {
			held = append(held, strings.Split(seats, ",")...)
		}
	}
	return held, rows.Err()
}

func (r *PGTicketRepository) loadPassengers(ctx context.Context, t *domain.Ticket) error {
	rows, err := r.db.Query(ctx, `SELECT name, seat FROM passengers WHERE ticket_id=$1 ORDER BY id`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.Name, &p.Seat); err != nil {
			return err
		}
		t.Passengers = append(t.Passengers, p)
	}
	return rows.Err()
}

type legRef struct {
	flightID string
	leg      domain.Leg
}

func ticketLegs(t *domain.Ticket) []legRef {
	legs := []legRef{{flightID: t.DepartureFlightID, leg: domain.LegDeparture}}
	if t.ReturnFlightID != "" {
		legs = append(legs, legRef{flightID: t.ReturnFlightID, leg: domain.LegReturn})
	}
	return legs
}

func checkHeldSeats(ctx context.Context, tx pgx.Tx, flightID string, candidate []string) error {
	rows, err := tx.Query(ctx, `SELECT seats_booked FROM tickets WHERE (departure_flight_id=$1 OR return_flight_id=$1) AND cancelled = false`, flightID)
	if err != nil {
		return err
	}
	defer rows.Close()

	held := make(map[string]bool)
	for rows.Next() {
		var seats string
		if err := rows.Scan(&seats); err != nil {
			return err
		}
		for _, s := range strings.Split(seats, ",") {
			if s != "" {
				held[s] = true
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, s := range candidate {
		if held[s] {
			return &domain.SeatConflictError{Seat: s}
		}
	}
	return nil
}

func scanTicket(row pgx.Row, t *domain.Ticket) error {
	return row.Scan(&t.ID, &t.PNR, &t.UserID, &t.DepartureFlightID, &t.ReturnFlightID, &t.TripType, &t.SeatsBooked, &t.TotalCents, &t.BookingTime, &t.Cancelled, &t.CreatedAt, &t.UpdatedAt)
}

var _ TicketRepository = (*PGTicketRepository)(nil)
