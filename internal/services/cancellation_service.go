package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/events"
	"busbooking/internal/metrics"
	"busbooking/internal/utils"
)

type CancellationService struct {
	Bookings BookingStore
	Payments PaymentStore
	Gateway  PaymentGateway
	Events   EventPublisher
	Now      func() time.Time
}

type CancelInput struct {
	Reason string `json:"reason" binding:"max=255"`
}

// CancellationResult is what the customer sees after (or before) cancelling.
type CancellationResult struct {
	BookingID    int64   `json:"bookingId"`
	PNR          string  `json:"pnr"`
	TotalAmount  float64 `json:"totalAmount"`
	RefundMethod string  `json:"refundMethod"`
	domain.PenaltyBreakdown
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// ownedBooking loads the booking and hides bookings of other customers behind NotFound.
func ownedBooking(ctx context.Context, store BookingStore, rc domain.RequestContext, id int64) (models.BookingView, error) {
	customerID, err := rc.RequireCustomer()
	if err != nil {
		return models.BookingView{}, err
	}
	v, err := store.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, err
	}
	if v.CustomerID != customerID {
		return models.BookingView{}, domain.NotFoundError{Resource: "booking"}
	}
	return v, nil
}

func (s CancellationService) evaluate(v models.BookingView, now time.Time) (CancellationResult, error) {
	hours := v.TravelDate.Sub(now).Hours()
	if err := domain.CheckCancellable(v.Status, hours); err != nil {
		return CancellationResult{}, err
	}
	return CancellationResult{
		BookingID:        v.ID,
		PNR:              v.PNR,
		TotalAmount:      v.TotalAmount,
		RefundMethod:     domain.RefundMethodLabel(v.PaymentMethod),
		PenaltyBreakdown: domain.ComputePenalty(v.TotalAmount, hours),
	}, nil
}

// PreviewCancellation computes the penalty without changing anything.
func (s CancellationService) PreviewCancellation(ctx context.Context, rc domain.RequestContext, bookingID int64) (CancellationResult, error) {
	v, err := ownedBooking(ctx, s.Bookings, rc, bookingID)
	if err != nil {
		return CancellationResult{}, err
	}
	return s.evaluate(v, clock(s.Now).now())
}

// CancelBooking cancels a Pending or Confirmed booking, applying the penalty tier for the
// time left before departure and releasing every held seat.
func (s CancellationService) CancelBooking(ctx context.Context, rc domain.RequestContext, bookingID int64, in CancelInput) (CancellationResult, error) {
	v, err := ownedBooking(ctx, s.Bookings, rc, bookingID)
	if err != nil {
		return CancellationResult{}, err
	}
	now := clock(s.Now).now()
	res, err := s.evaluate(v, now)
	if err != nil {
		return CancellationResult{}, err
	}

	c := models.Cancellation{
		BookingID:     v.ID,
		PenaltyAmount: res.PenaltyAmount,
		RefundAmount:  res.RefundAmount,
		Reason:        utils.NormalizeSpace(in.Reason),
		CancelledAt:   now,
	}
	if err := s.Bookings.Cancel(ctx, v.CustomerID, c); err != nil {
		return CancellationResult{}, domain.Internal("failed to cancel booking", err)
	}
	res.CancelledAt = &now
	metrics.BookingsCancelled.Inc()
	utils.LogEvent(rc.RequestID, "cancellation", "cancel", fmt.Sprintf("booking_id=%d pnr=%s hours=%.2f penalty=%.2f refund=%.2f",
		v.ID, v.PNR, res.HoursUntilTravel, res.PenaltyAmount, res.RefundAmount))

	if v.Status == models.BookingConfirmed {
		s.refund(ctx, rc, v, res.RefundAmount)
	}

	evt := bookingEvent(v)
	evt.PenaltyAmount = res.PenaltyAmount
	evt.RefundAmount = res.RefundAmount
	evt.RefundMethod = res.RefundMethod
	evt.OccurredAt = now
	publish(ctx, s.Events, rc.RequestID, "cancellation", events.TopicBookingCancelled, evt)
	return res, nil
}

// refund asks the gateway to return money for a paid booking. Failures are logged and left
// for manual follow-up; the cancellation itself has already committed.
func (s CancellationService) refund(ctx context.Context, rc domain.RequestContext, v models.BookingView, amount float64) {
	if s.Gateway == nil || v.Payment == nil || amount <= 0 {
		return
	}
	p := *v.Payment
	if p.Status != models.PaymentPaid || strings.TrimSpace(p.GatewayPaymentID) == "" {
		return
	}
	r, err := s.Gateway.Refund(ctx, p.GatewayPaymentID, utils.ToPaise(amount))
	if err != nil {
		utils.LogError(rc.RequestID, "cancellation", "refund", err)
		return
	}
	if s.Payments != nil {
		if err := s.Payments.UpdateStatus(ctx, p.GatewayOrderID, models.PaymentRefundInitiated); err != nil {
			utils.LogError(rc.RequestID, "cancellation", "refund status", err)
		}
	}
	utils.LogEvent(rc.RequestID, "cancellation", "refund", fmt.Sprintf("booking_id=%d refund_id=%s amount=%.2f", v.ID, r.ID, amount))
}
