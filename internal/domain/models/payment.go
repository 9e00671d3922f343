package models

import "time"

type PaymentStatus string

const (
	PaymentCreated         PaymentStatus = "Created"
	PaymentPaid            PaymentStatus = "Paid"
	PaymentFailed          PaymentStatus = "Failed"
	PaymentRefundInitiated PaymentStatus = "RefundInitiated"
)

// Payment methods as reported by the gateway checkout.
const (
	MethodUPI          = "UPI"
	MethodCard         = "Card"
	MethodBankTransfer = "BankTransfer"
	MethodNetBanking   = "NetBanking"
	MethodWallet       = "Wallet"
)

// Payment represents a gateway order/payment pair for a booking.
type Payment struct {
	ID               int64         `json:"id"`
	BookingID        int64         `json:"bookingId"`
	GatewayOrderID   string        `json:"gatewayOrderId"`
	GatewayPaymentID string        `json:"gatewayPaymentId,omitempty"`
	Signature        string        `json:"-"`
	Amount           float64       `json:"amount"`
	Currency         string        `json:"currency"`
	PaymentMethod    string        `json:"paymentMethod,omitempty"`
	Status           PaymentStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
