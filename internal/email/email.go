package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightapp/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.TicketEvent) error {
	fmt.Printf("send email to user %s about %s for pnr %s (flight %s, seats %s)\n",
		event.UserID, event.Type, event.PNR, event.DepartureFlightID, event.Seats)
	return nil
}
