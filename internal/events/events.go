package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingCancelled = "booking.cancelled"
	TopicBookingExpired   = "booking.expired"
)

// BookingEvent is the payload carried on every booking topic.
type BookingEvent struct {
	BookingID     int64     `json:"bookingId"`
	PNR           string    `json:"pnr"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Route         string    `json:"route"`
	TravelDate    time.Time `json:"travelDate"`
	TotalAmount   float64   `json:"totalAmount"`
	PenaltyAmount float64   `json:"penaltyAmount,omitempty"`
	RefundAmount  float64   `json:"refundAmount,omitempty"`
	RefundMethod  string    `json:"refundMethod,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Bus publishes booking events as JSON watermill messages.
type Bus struct {
	publisher message.Publisher
}

func NewBus(publisher message.Publisher) *Bus {
	return &Bus{publisher: publisher}
}

// NewPubSub builds the in-process pub/sub used by both the bus and the notification router.
func NewPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
		Persistent:          false,
	}, logger)
}

func (b *Bus) Publish(ctx context.Context, topic string, evt BookingEvent) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("pnr", evt.PNR)
	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Decode reads a BookingEvent back from a message.
func Decode(msg *message.Message) (BookingEvent, error) {
	var evt BookingEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event: %w", err)
	}
	return evt, nil
}
