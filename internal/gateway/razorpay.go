package gateway

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	rzputils "github.com/razorpay/razorpay-go/utils"
)

// Order is the subset of a Razorpay order the booking flow needs.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Refund is the subset of a Razorpay refund response.
type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// OrderAPI is satisfied by the SDK's order resource.
type OrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentAPI is satisfied by the SDK's payment resource.
type PaymentAPI interface {
	Refund(paymentID string, amount int, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

var errNotConfigured = errors.New("razorpay credentials not configured")

// Razorpay adapts the razorpay-go client to the booking flow.
type Razorpay struct {
	KeyID     string
	KeySecret string
	Orders    OrderAPI
	Payments  PaymentAPI
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{
		KeyID:     keyID,
		KeySecret: keySecret,
		Orders:    client.Order,
		Payments:  client.Payment,
	}
}

func (r *Razorpay) PublicKey() string { return r.KeyID }

// CreateOrder creates an order for amount in paise.
func (r *Razorpay) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (Order, error) {
	body, err := r.call(ctx, "create order", func() (map[string]interface{}, error) {
		return r.Orders.Create(map[string]interface{}{
			"amount":   amountPaise,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
	})
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID:       str(body, "id"),
		Amount:   paise(body, "amount"),
		Currency: str(body, "currency"),
		Receipt:  str(body, "receipt"),
		Status:   str(body, "status"),
	}, nil
}

// Refund refunds amountPaise of a captured payment.
func (r *Razorpay) Refund(ctx context.Context, paymentID string, amountPaise int64) (Refund, error) {
	body, err := r.call(ctx, "refund "+paymentID, func() (map[string]interface{}, error) {
		return r.Payments.Refund(paymentID, int(amountPaise), nil, nil)
	})
	if err != nil {
		return Refund{}, err
	}
	return Refund{
		ID:        str(body, "id"),
		PaymentID: str(body, "payment_id"),
		Amount:    paise(body, "amount"),
		Status:    str(body, "status"),
	}, nil
}

// VerifySignature checks the checkout signature: HMAC-SHA256(order_id|payment_id) with the key secret.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(r.KeySecret, orderID, paymentID, signature)
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return rzputils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, secret)
}

// call runs an SDK request; the SDK has no context support so cancellation only stops the wait.
func (r *Razorpay) call(ctx context.Context, op string, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if r.KeyID == "" || r.KeySecret == "" {
		return nil, errNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay %s: %w", op, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay %s: %w", op, res.err)
		}
		return res.body, nil
	}
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// paise reads a JSON number, which the SDK decodes as float64.
func paise(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
