package tickets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/Domenick1991/flightapp/internal/kafka"
	"github.com/Domenick1991/flightapp/internal/keylock"
	"github.com/Domenick1991/flightapp/internal/repository"
	"github.com/google/uuid"
)

type TicketUseCase interface {
	Book(ctx context.Context, input BookTicketInput) (string, error)
	Cancel(ctx context.Context, pnr string) (string, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Ticket, error)
	History(ctx context.Context, userID string) ([]domain.Ticket, error)
}

type Cache interface {
	AcquireFlightLock(ctx context.Context, flightID string, ttl time.Duration) (bool, error)
	ReleaseFlightLock(ctx context.Context, flightID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

const (
	MsgCancelled        = "Cancelled Successfully"
	MsgAlreadyCancelled = "Ticket already cancelled"
)

// The cancellation window closes strictly inside 24 hours of departure; a
// ticket exactly 24 hours out is still cancellable.
const cancellationCutoff = 24 * time.Hour

const lockRetryInterval = 50 * time.Millisecond

type BookTicketInput struct {
	UserID            string
	DepartureFlightID string
	ReturnFlightID    string
	TripType          domain.TripType
	Passengers        []domain.Passenger
}

type TicketService struct {
	tickets            repository.TicketRepository
	flights            repository.FlightRepository
	users              repository.UserRepository
	conflicts          *ConflictChecker
	locks              *keylock.KeyLock
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	now                func() time.Time
}

type TicketServiceOption func(*TicketService)

func WithNotificationsTopic(topic string) TicketServiceOption {
	return func(s *TicketService) {
		s.notificationsTopic = topic
	}
}

// WithClock replaces the time source, used by the cutoff tests.
func WithClock(now func() time.Time) TicketServiceOption {
	return func(s *TicketService) {
		s.now = now
	}
}

func NewTicketService(
	tickets repository.TicketRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	lockTTL time.Duration,
	opts ...TicketServiceOption,
) *TicketService {
	service := &TicketService{
		tickets:      tickets,
		flights:      flights,
		users:        users,
		conflicts:    NewConflictChecker(tickets),
		locks:        keylock.New(),
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		lockTTL:      lockTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book runs the whole reservation as one unit per flight: seat-conflict check,
// capacity check-and-decrement per leg, fare, durable ticket write. On any
// failure no decrement survives — the repository applies every mutation in a
// single transaction.
func (s *TicketService) Book(ctx context.Context, input BookTicketInput) (string, error) {
	if len(input.Passengers) == 0 {
		return "", domain.ErrNoPassengers
	}
	switch input.TripType {
	case domain.TripOneWay:
		if input.ReturnFlightID != "" {
			return "", domain.ErrTripLegMismatch
		}
	case domain.TripRoundTrip:
		if input.ReturnFlightID == "" {
			return "", domain.ErrTripLegMismatch
		}
	default:
		return "", domain.ErrUnknownTripType
	}

	seats := make([]string, 0, len(input.Passengers))
	seen := make(map[string]bool, len(input.Passengers))
	for _, p := range input.Passengers {
		if seen[p.Seat] {
			return "", domain.ErrDuplicateSeatSelection
		}
		seen[p.Seat] = true
		seats = append(seats, p.Seat)
	}

	exists, err := s.users.Exists(ctx, input.UserID)
	if err != nil {
		return "", fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return "", domain.ErrUserNotFound
	}

	flightIDs := []string{input.DepartureFlightID}
	if input.ReturnFlightID != "" {
		flightIDs = append(flightIDs, input.ReturnFlightID)
	}

	unlock := s.locks.Lock(flightIDs...)
	defer unlock()
	release, err := s.lockFlights(ctx, flightIDs)
	if err != nil {
		return "", err
	}
	defer release()

	if err := s.conflicts.Check(ctx, input.DepartureFlightID, seats); err != nil {
		return "", err
	}
	dep, err := s.flights.GetByID(ctx, input.DepartureFlightID)
	if err != nil {
		return "", err
	}
	if dep.AvailableSeats < len(input.Passengers) {
		return "", &domain.InsufficientSeatsError{Leg: domain.LegDeparture}
	}

	var returnCents int64
	if input.TripType == domain.TripRoundTrip {
		if err := s.conflicts.Check(ctx, input.ReturnFlightID, seats); err != nil {
			return "", err
		}
		ret, err := s.flights.GetByID(ctx, input.ReturnFlightID)
		if err != nil {
			return "", err
		}
		if ret.AvailableSeats < len(input.Passengers) {
			return "", &domain.InsufficientSeatsError{Leg: domain.LegReturn}
		}
		returnCents = ret.PriceCents
	}

	ticket := &domain.Ticket{
		PNR:               newPNR(),
		UserID:            input.UserID,
		DepartureFlightID: input.DepartureFlightID,
		ReturnFlightID:    input.ReturnFlightID,
		TripType:          input.TripType,
		SeatsBooked:       domain.JoinSeats(input.Passengers),
		TotalCents:        Fare(len(input.Passengers), dep.PriceCents, returnCents),
		BookingTime:       s.now(),
		Passengers:        input.Passengers,
	}

	if err := s.tickets.Book(ctx, ticket); err != nil {
		if errors.Is(err, domain.ErrPNRTaken) {
			ticket.PNR = newPNR()
			err = s.tickets.Book(ctx, ticket)
		}
		if err != nil {
			return "", err
		}
	}

	s.publish(ctx, "ticket_booked", ticket)
	return ticket.PNR, nil
}

// Cancel restores inventory on every leg and marks the ticket void, as one
// unit. A repeat cancel is answered with the already-cancelled message and
// never re-applies the restoration. The cutoff is evaluated against the
// departure leg only, round-trips included.
func (s *TicketService) Cancel(ctx context.Context, pnr string) (string, error) {
	ticket, err := s.tickets.GetByPNR(ctx, pnr)
	if err != nil {
		return "", err
	}
	if ticket.Cancelled {
		return MsgAlreadyCancelled, nil
	}

	flightIDs := []string{ticket.DepartureFlightID}
	if ticket.ReturnFlightID != "" {
		flightIDs = append(flightIDs, ticket.ReturnFlightID)
	}

	unlock := s.locks.Lock(flightIDs...)
	defer unlock()
	release, err := s.lockFlights(ctx, flightIDs)
	if err != nil {
		return "", err
	}
	defer release()

	dep, err := s.flights.GetByID(ctx, ticket.DepartureFlightID)
	if err != nil {
		return "", err
	}
	if dep.DepartureTime.Before(s.now().Add(cancellationCutoff)) {
		return "", domain.ErrCancellationWindowClosed
	}

	if err := s.tickets.Cancel(ctx, ticket); err != nil {
		if errors.Is(err, domain.ErrTicketCancelled) {
			return MsgAlreadyCancelled, nil
		}
		return "", err
	}

	s.publish(ctx, "ticket_cancelled", ticket)
	return MsgCancelled, nil
}

func (s *TicketService) GetByPNR(ctx context.Context, pnr string) (*domain.Ticket, error) {
	return s.tickets.GetByPNR(ctx, pnr)
}

func (s *TicketService) History(ctx context.Context, userID string) ([]domain.Ticket, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return s.tickets.ListByUser(ctx, userID)
}

// lockFlights takes the cross-instance redis locks, in sorted id order,
// spinning until acquired or the context ends. No-op when the service runs
// without a cache.
func (s *TicketService) lockFlights(ctx context.Context, flightIDs []string) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}

	ids := make([]string, 0, len(flightIDs))
	seen := make(map[string]bool, len(flightIDs))
	for _, id := range flightIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	acquired := make([]string, 0, len(ids))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			_ = s.cache.ReleaseFlightLock(ctx, acquired[i])
		}
	}
	for _, id := range ids {
		for {
			ok, err := s.cache.AcquireFlightLock(ctx, id, s.lockTTL)
			if err != nil {
				release()
				return nil, err
			}
			if ok {
				break
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(lockRetryInterval):
			}
		}
		acquired = append(acquired, id)
	}
	return release, nil
}

func (s *TicketService) publish(ctx context.Context, eventType string, t *domain.Ticket) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.TicketEvent{
		Type:              eventType,
		PNR:               t.PNR,
		UserID:            t.UserID,
		DepartureFlightID: t.DepartureFlightID,
		ReturnFlightID:    t.ReturnFlightID,
		Seats:             t.SeatsBooked,
		TotalCents:        t.TotalCents,
		BookingTime:       t.BookingTime,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, t.PNR, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for pnr %s: %v", eventType, t.PNR, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, t.PNR, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for pnr %s: %v", eventType, t.PNR, err)
		}
	}
}

// newPNR mints the public confirmation code: the first 8 characters of a v4
// uuid. The insert path retries once on the unique index.
func newPNR() string {
	return uuid.NewString()[:8]
}

var _ TicketUseCase = (*TicketService)(nil)
