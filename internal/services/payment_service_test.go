package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (w *world) paymentService(now time.Time) PaymentService {
	confirm := w.bookingService()
	confirm.Now = func() time.Time { return now }
	return PaymentService{Bookings: w.bookings, Payments: w.payments, Gateway: w.gateway, Confirm: confirm, Now: func() time.Time { return now }}
}

func TestCreateOrderInPaise(t *testing.T) {
	w := newWorld()
	b := pendingBooking(t, w, "U1")
	order, err := w.paymentService(fixedNow()).CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(125000), order.AmountMin)
	assert.Equal(t, "rzp_test_key", order.KeyID)
	assert.Equal(t, b.PNR, order.PNR)

	p, err := w.payments.GetByOrderID(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, p.Status)
}

func TestCreateOrderRejectsExpiredHold(t *testing.T) {
	w := newWorld()
	b := pendingBooking(t, w, "1")
	_, err := w.paymentService(fixedNow().Add(15*time.Minute)).CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, w.gateway.orders)
}

func TestVerifyPaymentConfirmsBooking(t *testing.T) {
	w := newWorld()
	b := pendingBooking(t, w, "1")
	svc := w.paymentService(fixedNow().Add(time.Minute))
	order, err := svc.CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)

	v, err := svc.VerifyPayment(context.Background(), customerRC, VerifyPaymentInput{
		OrderID: order.OrderID, PaymentID: "pay_9", Signature: "sig", PaymentMethod: models.MethodUPI,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, v.Status)
	assert.Equal(t, models.MethodUPI, v.PaymentMethod)
	assert.Equal(t, []string{events.TopicBookingConfirmed}, w.events.topics)
}

func TestVerifyPaymentBadSignatureMarksFailed(t *testing.T) {
	w := newWorld()
	w.gateway.validSig = false
	b := pendingBooking(t, w, "1")
	svc := w.paymentService(fixedNow())
	order, err := svc.CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(context.Background(), customerRC, VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_9", Signature: "forged"})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, models.PaymentFailed, w.payments.statuses[order.OrderID])
	assert.Equal(t, models.BookingPending, w.bookings.views[b.ID].Status)
}

func TestVerifyPaymentAfterHoldExpiryRefunds(t *testing.T) {
	w := newWorld()
	b := pendingBooking(t, w, "1")
	order, err := w.paymentService(fixedNow()).CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)

	late := w.paymentService(fixedNow().Add(15 * time.Minute))
	_, err = late.VerifyPayment(context.Background(), customerRC, VerifyPaymentInput{
		OrderID: order.OrderID, PaymentID: "pay_late", Signature: "sig", PaymentMethod: models.MethodCard,
	})
	require.True(t, domain.IsValidation(err), "got %v", err)
	assert.Contains(t, err.Error(), "refunded")

	assert.Equal(t, []int64{order.AmountMin}, w.gateway.refunds)
	assert.Equal(t, models.PaymentRefundInitiated, w.payments.statuses[order.OrderID])
	assert.Equal(t, "pay_late", w.payments.byOrder[order.OrderID].GatewayPaymentID)
	assert.Equal(t, models.BookingPending, w.bookings.views[b.ID].Status)
	assert.Empty(t, w.events.topics)
}

func TestVerifyPaymentOnCancelledBookingRefunds(t *testing.T) {
	w := newWorld()
	b := pendingBooking(t, w, "1")
	svc := w.paymentService(fixedNow().Add(time.Minute))
	order, err := svc.CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)

	v := w.bookings.views[b.ID]
	v.Status = models.BookingExpired
	w.bookings.views[b.ID] = v

	_, err = svc.VerifyPayment(context.Background(), customerRC, VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_2", Signature: "sig"})
	require.True(t, domain.IsValidation(err))
	assert.Len(t, w.gateway.refunds, 1)
	assert.Equal(t, models.PaymentRefundInitiated, w.payments.statuses[order.OrderID])
}

func TestVerifyPaymentRefundFailureMarksFailed(t *testing.T) {
	w := newWorld()
	w.gateway.refundErr = errors.New("gateway timeout")
	b := pendingBooking(t, w, "1")
	order, err := w.paymentService(fixedNow()).CreateOrder(context.Background(), customerRC, CreateOrderInput{BookingID: b.ID})
	require.NoError(t, err)

	_, err = w.paymentService(fixedNow().Add(time.Hour)).VerifyPayment(context.Background(), customerRC, VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_3", Signature: "sig"})
	require.True(t, domain.IsValidation(err))
	assert.Equal(t, models.PaymentFailed, w.payments.statuses[order.OrderID])
}
