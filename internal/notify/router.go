package notify

import (
	"fmt"
	"strings"
	"time"

	"busbooking/internal/events"
	"busbooking/internal/utils"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// NewRouter wires one email handler per booking topic.
func NewRouter(sub message.Subscriber, mailer Mailer, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
	)

	for _, topic := range []string{events.TopicBookingConfirmed, events.TopicBookingCancelled, events.TopicBookingExpired} {
		router.AddNoPublisherHandler("email-"+topic, topic, sub, emailHandler(topic, mailer))
	}
	return router, nil
}

func emailHandler(topic string, mailer Mailer) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		evt, err := events.Decode(msg)
		if err != nil {
			// malformed payloads are dropped, retrying cannot fix them
			utils.LogError(msg.UUID, "notify", topic, err)
			return nil
		}
		if strings.TrimSpace(evt.CustomerEmail) == "" {
			return nil
		}
		subject, body := RenderEmail(topic, evt)
		return mailer.Send(msg.Context(), evt.CustomerEmail, subject, body)
	}
}

// RenderEmail builds subject and body for a booking event.
func RenderEmail(topic string, evt events.BookingEvent) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", evt.CustomerName)

	var subject string
	switch topic {
	case events.TopicBookingConfirmed:
		subject = "Booking confirmed - PNR " + evt.PNR
		fmt.Fprintf(&b, "Your booking %s for %s on %s is confirmed.\n", evt.PNR, evt.Route, evt.TravelDate.Format("02 Jan 2006 15:04"))
		fmt.Fprintf(&b, "Amount paid: %s\n", utils.FormatRupees(evt.TotalAmount))
	case events.TopicBookingCancelled:
		subject = "Booking cancelled - PNR " + evt.PNR
		fmt.Fprintf(&b, "Your booking %s has been cancelled.\n", evt.PNR)
		fmt.Fprintf(&b, "Cancellation charge: %s\n", utils.FormatRupees(evt.PenaltyAmount))
		fmt.Fprintf(&b, "Refund: %s via %s\n", utils.FormatRupees(evt.RefundAmount), evt.RefundMethod)
	case events.TopicBookingExpired:
		subject = "Reservation expired - PNR " + evt.PNR
		fmt.Fprintf(&b, "Your seat hold for booking %s expired before payment was completed. The seats have been released.\n", evt.PNR)
	default:
		subject = "Booking update - PNR " + evt.PNR
	}
	b.WriteString("\nThank you for travelling with us.\n")
	return subject, b.String()
}
