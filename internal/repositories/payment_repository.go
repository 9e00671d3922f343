package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type PaymentRepository struct {
	DB *sql.DB
}

const paymentColumns = `id, booking_id, gateway_order_id, COALESCE(gateway_payment_id, ''), COALESCE(signature, ''),
	amount, currency, COALESCE(payment_method, ''), status, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.GatewayOrderID, &p.GatewayPaymentID, &p.Signature,
		&p.Amount, &p.Currency, &p.PaymentMethod, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r PaymentRepository) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO payments (booking_id, gateway_order_id, amount, currency, status)
		VALUES (?, ?, ?, ?, ?)
	`, p.BookingID, p.GatewayOrderID, p.Amount, p.Currency, p.Status)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: "order already recorded", Err: err}
		}
		return models.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (r PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (models.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE gateway_order_id=?`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if err != nil {
		return models.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r PaymentRepository) LatestForBooking(ctx context.Context, bookingID int64) (models.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE booking_id=? ORDER BY id DESC LIMIT 1
	`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if err != nil {
		return models.Payment{}, fmt.Errorf("get latest payment: %w", err)
	}
	return p, nil
}

// MarkPaid records the captured payment and confirms its booking in one transaction.
// The booking must still be Pending with an unexpired hold.
func (r PaymentRepository) MarkPaid(ctx context.Context, p models.Payment, now time.Time) error {
	return intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var status models.BookingStatus
		var expiry sql.NullTime
		err := tx.QueryRowContext(ctx, `
			SELECT status, reservation_expiry_time FROM bookings WHERE id=? FOR UPDATE
		`, p.BookingID).Scan(&status, &expiry)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError{Resource: "booking", Err: err}
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if !status.CanTransitionTo(models.BookingConfirmed) {
			return domain.ValidationError{Field: "booking", Msg: "booking is " + string(status)}
		}
		if expiry.Valid && !expiry.Time.After(now) {
			return domain.ValidationError{Field: "booking", Msg: "reservation has expired"}
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE payments SET gateway_payment_id=?, signature=?, payment_method=?, status=?, updated_at=?
			WHERE gateway_order_id=? AND status=?
		`, p.GatewayPaymentID, p.Signature, intdb.NullIfEmpty(p.PaymentMethod), models.PaymentPaid, now, p.GatewayOrderID, models.PaymentCreated)
		if err != nil {
			return fmt.Errorf("mark payment paid: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ConflictError{Resource: "payment", Msg: "payment already processed"}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings SET status=?, reservation_expiry_time=NULL, updated_at=? WHERE id=?
		`, models.BookingConfirmed, now, p.BookingID); err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}
		return nil
	})
}

// MarkReversed stores the gateway payment of an order whose booking could not be
// confirmed, with the refund outcome as its status. Only Created payments are touched.
func (r PaymentRepository) MarkReversed(ctx context.Context, p models.Payment, status models.PaymentStatus) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE payments SET gateway_payment_id=?, signature=?, payment_method=?, status=?, updated_at=NOW()
		WHERE gateway_order_id=? AND status=?
	`, p.GatewayPaymentID, p.Signature, intdb.NullIfEmpty(p.PaymentMethod), status, p.GatewayOrderID, models.PaymentCreated)
	if err != nil {
		return fmt.Errorf("mark payment reversed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConflictError{Resource: "payment", Msg: "payment already processed"}
	}
	return nil
}

func (r PaymentRepository) UpdateStatus(ctx context.Context, orderID string, status models.PaymentStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE payments SET status=?, updated_at=NOW() WHERE gateway_order_id=?`, status, orderID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "payment"}
	}
	return nil
}
