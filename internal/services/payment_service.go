package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/metrics"
	"busbooking/internal/utils"
)

const currencyINR = "INR"

type PaymentService struct {
	Bookings BookingStore
	Payments PaymentStore
	Gateway  PaymentGateway
	Confirm  BookingService
	Now      func() time.Time
}

type CreateOrderInput struct {
	BookingID int64 `json:"bookingId" binding:"required,gt=0"`
}

// CheckoutOrder is what the client needs to open the gateway checkout.
type CheckoutOrder struct {
	OrderID   string  `json:"orderId"`
	KeyID     string  `json:"keyId"`
	Amount    float64 `json:"amount"`
	AmountMin int64   `json:"amountPaise"`
	Currency  string  `json:"currency"`
	BookingID int64   `json:"bookingId"`
	PNR       string  `json:"pnr"`
}

type VerifyPaymentInput struct {
	OrderID       string `json:"razorpay_order_id" binding:"required"`
	PaymentID     string `json:"razorpay_payment_id" binding:"required"`
	Signature     string `json:"razorpay_signature" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

// CreateOrder opens a gateway order for the booking's total while the hold is still valid.
func (s PaymentService) CreateOrder(ctx context.Context, rc domain.RequestContext, in CreateOrderInput) (CheckoutOrder, error) {
	if s.Gateway == nil {
		return CheckoutOrder{}, domain.Internal("payment gateway not configured", fmt.Errorf("no gateway"))
	}
	v, err := ownedBooking(ctx, s.Bookings, rc, in.BookingID)
	if err != nil {
		return CheckoutOrder{}, err
	}
	if v.Status != models.BookingPending {
		return CheckoutOrder{}, domain.ValidationError{Field: "bookingId", Msg: "booking is " + string(v.Status)}
	}
	now := clock(s.Now).now()
	if v.ReservationExpiryTime != nil && !v.ReservationExpiryTime.After(now) {
		return CheckoutOrder{}, domain.ValidationError{Field: "bookingId", Msg: "reservation has expired"}
	}

	paise := utils.ToPaise(v.TotalAmount)
	order, err := s.Gateway.CreateOrder(ctx, paise, currencyINR, v.PNR)
	if err != nil {
		return CheckoutOrder{}, domain.Internal("failed to create payment order", err)
	}
	if _, err := s.Payments.Create(ctx, models.Payment{
		BookingID:      v.ID,
		GatewayOrderID: order.ID,
		Amount:         v.TotalAmount,
		Currency:       currencyINR,
		Status:         models.PaymentCreated,
		CreatedAt:      now,
	}); err != nil {
		return CheckoutOrder{}, domain.Internal("failed to record payment", err)
	}
	utils.LogEvent(rc.RequestID, "payment", "create_order", fmt.Sprintf("booking_id=%d order_id=%s paise=%d", v.ID, order.ID, paise))

	return CheckoutOrder{
		OrderID:   order.ID,
		KeyID:     s.Gateway.PublicKey(),
		Amount:    v.TotalAmount,
		AmountMin: paise,
		Currency:  currencyINR,
		BookingID: v.ID,
		PNR:       v.PNR,
	}, nil
}

// VerifyPayment checks the checkout signature and confirms the booking.
func (s PaymentService) VerifyPayment(ctx context.Context, rc domain.RequestContext, in VerifyPaymentInput) (models.BookingView, error) {
	if s.Gateway == nil {
		return models.BookingView{}, domain.Internal("payment gateway not configured", fmt.Errorf("no gateway"))
	}
	customerID, err := rc.RequireCustomer()
	if err != nil {
		return models.BookingView{}, err
	}
	p, err := s.Payments.GetByOrderID(ctx, strings.TrimSpace(in.OrderID))
	if err != nil {
		return models.BookingView{}, err
	}
	v, err := s.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return models.BookingView{}, err
	}
	if v.CustomerID != customerID {
		return models.BookingView{}, domain.NotFoundError{Resource: "payment"}
	}

	if !s.Gateway.VerifySignature(p.GatewayOrderID, in.PaymentID, in.Signature) {
		metrics.PaymentVerifications.WithLabelValues("invalid").Inc()
		if err := s.Payments.UpdateStatus(ctx, p.GatewayOrderID, models.PaymentFailed); err != nil {
			utils.LogError(rc.RequestID, "payment", "mark failed", err)
		}
		return models.BookingView{}, domain.ValidationError{Field: "razorpay_signature", Msg: "payment signature mismatch"}
	}
	metrics.PaymentVerifications.WithLabelValues("valid").Inc()

	p.GatewayPaymentID = in.PaymentID
	p.Signature = in.Signature
	p.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	v, err = s.Confirm.ConfirmBooking(ctx, rc, p)
	if domain.IsValidation(err) {
		// money was captured but the booking can no longer be confirmed
		return models.BookingView{}, s.reverse(ctx, rc, p, err)
	}
	return v, err
}

// reverse refunds a captured payment whose booking expired or was cancelled before
// confirmation. The payment ends RefundInitiated, or Failed when the refund call fails.
func (s PaymentService) reverse(ctx context.Context, rc domain.RequestContext, p models.Payment, cause error) error {
	status := models.PaymentRefundInitiated
	paise := utils.ToPaise(p.Amount)
	if _, err := s.Gateway.Refund(ctx, p.GatewayPaymentID, paise); err != nil {
		utils.LogError(rc.RequestID, "payment", "refund unconfirmed payment", err)
		status = models.PaymentFailed
	}
	if err := s.Payments.MarkReversed(ctx, p, status); err != nil {
		utils.LogError(rc.RequestID, "payment", "record reversed payment", err)
	}
	metrics.PaymentVerifications.WithLabelValues("reversed").Inc()
	utils.LogEvent(rc.RequestID, "payment", "reverse", fmt.Sprintf("booking_id=%d payment_id=%s paise=%d status=%s", p.BookingID, p.GatewayPaymentID, paise, status))
	return domain.ValidationError{Field: "booking", Msg: cause.Error() + "; the payment will be refunded"}
}
