package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/Domenick1991/flightapp/internal/service/tickets"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service tickets.TicketUseCase
}

type passengerRequest struct {
	Name string `json:"name" binding:"required"`
	Seat string `json:"seat" binding:"required"`
}

type bookTicketRequest struct {
	UserID            string             `json:"user_id" binding:"required"`
	DepartureFlightID string             `json:"departure_flight_id" binding:"required"`
	ReturnFlightID    string             `json:"return_flight_id"`
	TripType          string             `json:"trip_type" binding:"required"`
	Passengers        []passengerRequest `json:"passengers" binding:"required"`
}

type passengerResponse struct {
	Name string `json:"name"`
	Seat string `json:"seat"`
}

type ticketResponse struct {
	PNR               string              `json:"pnr"`
	UserID            string              `json:"user_id"`
	DepartureFlightID string              `json:"departure_flight_id"`
	ReturnFlightID    string              `json:"return_flight_id,omitempty"`
	TripType          string              `json:"trip_type"`
	SeatsBooked       string              `json:"seats_booked"`
	TotalCents        int64               `json:"total_cents"`
	BookingTime       string              `json:"booking_time"`
	Cancelled         bool                `json:"cancelled"`
	Passengers        []passengerResponse `json:"passengers"`
}

func NewTicketHandler(service tickets.TicketUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.POST("/booking", h.book)
	router.DELETE("/booking/:pnr", h.cancel)
	router.GET("/booking/ticket/:pnr", h.ticket)
	router.GET("/booking/history/:userId", h.history)
}

func (h *TicketHandler) book(c *gin.Context) {
	var req bookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passengers := make([]domain.Passenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers = append(passengers, domain.Passenger{Name: p.Name, Seat: p.Seat})
	}

	pnr, err := h.service.Book(c.Request.Context(), tickets.BookTicketInput{
		UserID:            req.UserID,
		DepartureFlightID: req.DepartureFlightID,
		ReturnFlightID:    req.ReturnFlightID,
		TripType:          domain.TripType(req.TripType),
		Passengers:        passengers,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"pnr": pnr})
}

func (h *TicketHandler) cancel(c *gin.Context) {
	message, err := h.service.Cancel(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *TicketHandler) ticket(c *gin.Context) {
	t, err := h.service.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		if errors.Is(err, domain.ErrPNRNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(t))
}

func (h *TicketHandler) history(c *gin.Context) {
	list, err := h.service.History(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	out := make([]ticketResponse, 0, len(list))
	for i := range list {
		out = append(out, toTicketResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// fail maps domain errors to 400 with their message; anything else is an
// internal store failure, logged and answered opaquely.
func (h *TicketHandler) fail(c *gin.Context, err error) {
	if isDomainError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func isDomainError(err error) bool {
	var seatErr *domain.SeatConflictError
	var capErr *domain.InsufficientSeatsError
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrPNRNotFound),
		errors.Is(err, domain.ErrDuplicateSeatSelection),
		errors.Is(err, domain.ErrCancellationWindowClosed),
		errors.Is(err, domain.ErrNoPassengers),
		errors.Is(err, domain.ErrTripLegMismatch),
		errors.Is(err, domain.ErrUnknownTripType),
		errors.As(err, &seatErr),
		errors.As(err, &capErr):
		return true
	}
	return false
}

func toTicketResponse(t *domain.Ticket) ticketResponse {
	passengers := make([]passengerResponse, 0, len(t.Passengers))
	for _, p := range t.Passengers {
		passengers = append(passengers, passengerResponse{Name: p.Name, Seat: p.Seat})
	}
	return ticketResponse{
		PNR:               t.PNR,
		UserID:            t.UserID,
		DepartureFlightID: t.DepartureFlightID,
		ReturnFlightID:    t.ReturnFlightID,
		TripType:          string(t.TripType),
		SeatsBooked:       t.SeatsBooked,
		TotalCents:        t.TotalCents,
		BookingTime:       t.BookingTime.Format(time.RFC3339),
		Cancelled:         t.Cancelled,
		Passengers:        passengers,
	}
}
