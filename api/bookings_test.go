package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightapp/internal/domain"
	"github.com/Domenick1991/flightapp/internal/service/tickets"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTicketUseCase is a mock implementation of tickets.TicketUseCase
type MockTicketUseCase struct {
	mock.Mock
}

func (m *MockTicketUseCase) Book(ctx context.Context, input tickets.BookTicketInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockTicketUseCase) Cancel(ctx context.Context, pnr string) (string, error) {
	args := m.Called(ctx, pnr)
	return args.String(0), args.Error(1)
}

func (m *MockTicketUseCase) GetByPNR(ctx context.Context, pnr string) (*domain.Ticket, error) {
	args := m.Called(ctx, pnr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketUseCase) History(ctx context.Context, userID string) ([]domain.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func bookingRouter(service tickets.TicketUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewTicketHandler(service).Register(router.Group("/flight"))
	return router
}

func validBookRequest() bookTicketRequest {
	return bookTicketRequest{
		UserID:            "u1",
		DepartureFlightID: "F1",
		TripType:          "ONE_WAY",
		Passengers:        []passengerRequest{{Name: "Alice", Seat: "12A"}},
	}
}

func TestTicketHandler_book(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("Book", mock.Anything, mock.AnythingOfType("tickets.BookTicketInput")).Return("AB12CD34", nil).Once()

	body, _ := json.Marshal(validBookRequest())
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/flight/booking", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AB12CD34", resp["pnr"])
	mockService.AssertExpectations(t)
}

func TestTicketHandler_book_InvalidBody(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/flight/booking", bytes.NewReader([]byte(`{"user_id": ""}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
}

func TestTicketHandler_book_SeatConflict(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("Book", mock.Anything, mock.Anything).
		Return("", &domain.SeatConflictError{Seat: "12A"}).Once()

	body, _ := json.Marshal(validBookRequest())
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/flight/booking", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "seat 12A is already booked")
}

func TestTicketHandler_book_StoreFailure(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("Book", mock.Anything, mock.Anything).
		Return("", errors.New("connection refused")).Once()

	body, _ := json.Marshal(validBookRequest())
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/flight/booking", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Store internals stay opaque to the caller.
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestTicketHandler_cancel(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("Cancel", mock.Anything, "AB12CD34").Return(tickets.MsgCancelled, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/flight/booking/AB12CD34", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tickets.MsgCancelled)
	mockService.AssertExpectations(t)
}

func TestTicketHandler_cancel_WindowClosed(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("Cancel", mock.Anything, "AB12CD34").
		Return("", domain.ErrCancellationWindowClosed).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/flight/booking/AB12CD34", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "24 hours")
}

func TestTicketHandler_ticket(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("GetByPNR", mock.Anything, "AB12CD34").Return(&domain.Ticket{
		PNR:         "AB12CD34",
		UserID:      "u1",
		TripType:    domain.TripOneWay,
		SeatsBooked: "12A",
		Passengers:  []domain.Passenger{{Name: "Alice", Seat: "12A"}},
	}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/flight/booking/ticket/AB12CD34", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ticketResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AB12CD34", resp.PNR)
	assert.Len(t, resp.Passengers, 1)
}

func TestTicketHandler_ticket_NotFound(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("GetByPNR", mock.Anything, "NOPE").Return(nil, domain.ErrPNRNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/flight/booking/ticket/NOPE", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketHandler_history_UserNotFound(t *testing.T) {
	mockService := &MockTicketUseCase{}
	router := bookingRouter(mockService)

	mockService.On("History", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/flight/booking/history/ghost", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
