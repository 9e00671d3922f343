package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

// ErrDuplicatePNR is returned by Create when the generated PNR collides; callers retry with a new one.
var ErrDuplicatePNR = errors.New("duplicate pnr")

// reserveSeats locks the schedule row, rejects seats that are already held and takes
// len(seats) off available_seats. Must run inside tx.
func reserveSeats(ctx context.Context, tx *sql.Tx, scheduleID int64, seats []string) error {
	var available int
	var status models.ScheduleStatus
	err := tx.QueryRowContext(ctx, `
		SELECT available_seats, status FROM bus_schedules WHERE id=? FOR UPDATE
	`, scheduleID).Scan(&available, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: "schedule", Err: err}
	}
	if err != nil {
		return fmt.Errorf("lock schedule %d: %w", scheduleID, err)
	}
	if !status.Bookable() {
		return domain.ValidationError{Field: "scheduleId", Msg: "schedule is " + string(status)}
	}
	if available < len(seats) {
		return domain.ConflictError{Resource: "schedule", Msg: fmt.Sprintf("only %d seat(s) left", available)}
	}

	args := []any{scheduleID}
	for _, s := range seats {
		args = append(args, s)
	}
	rows, err := tx.QueryContext(ctx, `
		SELECT seat_number FROM booked_seats WHERE seat_lock=? AND seat_number IN (`+intdb.Placeholders(len(seats))+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("check held seats: %w", err)
	}
	held := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return err
		}
		held = append(held, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(held) > 0 {
		return domain.ConflictError{Resource: "seat", Msg: "already booked: " + strings.Join(held, ", ")}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bus_schedules SET available_seats = available_seats - ?, updated_at=NOW()
		WHERE id=? AND available_seats >= ?
	`, len(seats), scheduleID, len(seats))
	if err != nil {
		return fmt.Errorf("decrement availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConflictError{Resource: "schedule", Msg: "not enough seats available"}
	}
	return nil
}

// releaseSeats frees every seat still held by the booking and gives availability back.
func releaseSeats(ctx context.Context, tx *sql.Tx, bookingID int64) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT schedule_id, COUNT(*) FROM booked_seats
		WHERE booking_id=? AND seat_lock IS NOT NULL
		GROUP BY schedule_id
	`, bookingID)
	if err != nil {
		return fmt.Errorf("count held seats: %w", err)
	}
	type held struct {
		scheduleID int64
		count      int
	}
	var toRelease []held
	for rows.Next() {
		var h held
		if err := rows.Scan(&h.scheduleID, &h.count); err != nil {
			rows.Close()
			return err
		}
		toRelease = append(toRelease, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, h := range toRelease {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bus_schedules SET available_seats = available_seats + ?, updated_at=NOW() WHERE id=?
		`, h.count, h.scheduleID); err != nil {
			return fmt.Errorf("restore availability: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE booked_seats SET seat_lock=NULL WHERE booking_id=?`, bookingID); err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	return nil
}

// Create persists a booking with its segments and seats. Schedules are locked in id
// order so concurrent connecting bookings cannot deadlock on each other.
func (r BookingRepository) Create(ctx context.Context, b models.Booking) (models.Booking, error) {
	err := intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		order := make([]int, len(b.Segments))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return b.Segments[order[i]].ScheduleID < b.Segments[order[j]].ScheduleID
		})
		for _, i := range order {
			seg := b.Segments[i]
			seats := make([]string, 0, len(seg.Seats))
			for _, s := range seg.Seats {
				seats = append(seats, s.SeatNumber)
			}
			if err := reserveSeats(ctx, tx, seg.ScheduleID, seats); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (pnr, customer_id, total_seats, total_amount, travel_date, status, booking_type, reservation_expiry_time, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, b.PNR, b.CustomerID, b.TotalSeats, b.TotalAmount, b.TravelDate, b.Status, b.BookingType, b.ReservationExpiryTime, b.CreatedAt, b.CreatedAt)
		if err != nil {
			if intdb.IsDuplicateKey(err) {
				return ErrDuplicatePNR
			}
			return fmt.Errorf("insert booking: %w", err)
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		for i := range b.Segments {
			seg := &b.Segments[i]
			seg.BookingID = b.ID
			res, err := tx.ExecContext(ctx, `
				INSERT INTO booking_segments (booking_id, schedule_id, segment_order, seat_count, amount, boarding_stop_id, dropping_stop_id)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, b.ID, seg.ScheduleID, seg.SegmentOrder, seg.SeatCount, seg.Amount, intdb.NullInt64(seg.BoardingStopID), intdb.NullInt64(seg.DroppingStopID))
			if err != nil {
				return fmt.Errorf("insert segment: %w", err)
			}
			if seg.ID, err = res.LastInsertId(); err != nil {
				return err
			}

			for j := range seg.Seats {
				st := &seg.Seats[j]
				st.BookingID, st.SegmentID, st.ScheduleID = b.ID, seg.ID, seg.ScheduleID
				res, err := tx.ExecContext(ctx, `
					INSERT INTO booked_seats (booking_id, segment_id, schedule_id, seat_number, seat_type, seat_position, passenger_name, passenger_age, passenger_gender, seat_lock)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				`, b.ID, seg.ID, seg.ScheduleID, st.SeatNumber, st.SeatType, st.SeatPosition, st.PassengerName, st.PassengerAge, st.PassengerGender, seg.ScheduleID)
				if err != nil {
					if intdb.IsDuplicateKey(err) {
						return domain.ConflictError{Resource: "seat", Msg: "already booked: " + st.SeatNumber, Err: err}
					}
					return fmt.Errorf("insert booked seat: %w", err)
				}
				if st.ID, err = res.LastInsertId(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	b.UpdatedAt = b.CreatedAt
	return b, nil
}

// Cancel marks the customer's booking Cancelled, records the penalty and releases its seats.
func (r BookingRepository) Cancel(ctx context.Context, customerID int64, c models.Cancellation) error {
	return intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var status models.BookingStatus
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM bookings WHERE id=? AND customer_id=? FOR UPDATE
		`, c.BookingID, customerID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError{Resource: "booking", Err: err}
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if !status.CanTransitionTo(models.BookingCancelled) {
			return domain.ValidationError{Field: "booking", Msg: "booking is already " + strings.ToLower(string(status))}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings SET status=?, cancelled_at=?, reservation_expiry_time=NULL, updated_at=? WHERE id=?
		`, models.BookingCancelled, c.CancelledAt, c.CancelledAt, c.BookingID); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cancellations (booking_id, penalty_amount, refund_amount, reason, cancelled_at)
			VALUES (?, ?, ?, ?, ?)
		`, c.BookingID, c.PenaltyAmount, c.RefundAmount, intdb.NullIfEmpty(c.Reason), c.CancelledAt); err != nil {
			if intdb.IsDuplicateKey(err) {
				return domain.ValidationError{Field: "booking", Msg: "booking is already cancelled", Err: err}
			}
			return fmt.Errorf("insert cancellation: %w", err)
		}
		return releaseSeats(ctx, tx, c.BookingID)
	})
}

// Expire flips a lapsed Pending booking to Expired and frees its seats. It reports false
// when the booking was already handled (paid, cancelled or expired by another run).
func (r BookingRepository) Expire(ctx context.Context, bookingID int64, now time.Time) (bool, error) {
	expired := false
	err := intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE bookings SET status=?, updated_at=?
			WHERE id=? AND status=? AND reservation_expiry_time <= ?
		`, models.BookingExpired, now, bookingID, models.BookingPending, now)
		if err != nil {
			return fmt.Errorf("expire booking: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		expired = true
		return releaseSeats(ctx, tx, bookingID)
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}

// ListExpired returns Pending bookings whose hold lapsed before now, oldest first.
func (r BookingRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, pnr, customer_id FROM bookings
		WHERE status=? AND reservation_expiry_time IS NOT NULL AND reservation_expiry_time <= ?
		ORDER BY reservation_expiry_time
		LIMIT ?
	`, models.BookingPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.PNR, &b.CustomerID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const bookingColumns = `bk.id, bk.pnr, bk.customer_id, bk.total_seats, bk.total_amount, bk.travel_date,
	bk.status, bk.booking_type, bk.reservation_expiry_time, bk.created_at, bk.updated_at, bk.cancelled_at`

func scanBooking(row interface{ Scan(...any) error }, extra ...any) (models.Booking, error) {
	var b models.Booking
	var expiry, cancelled sql.NullTime
	dest := []any{&b.ID, &b.PNR, &b.CustomerID, &b.TotalSeats, &b.TotalAmount, &b.TravelDate,
		&b.Status, &b.BookingType, &expiry, &b.CreatedAt, &b.UpdatedAt, &cancelled}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Booking{}, err
	}
	if expiry.Valid {
		t := expiry.Time
		b.ReservationExpiryTime = &t
	}
	if cancelled.Valid {
		t := cancelled.Time
		b.CancelledAt = &t
	}
	return b, nil
}

// ListByCustomer returns bookings without segment details, newest first.
func (r BookingRepository) ListByCustomer(ctx context.Context, customerID int64, page domain.Pagination) ([]models.Booking, error) {
	page = page.Normalize()
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings bk
		WHERE bk.customer_id=?
		ORDER BY bk.created_at DESC, bk.id DESC
		LIMIT ? OFFSET ?
	`, customerID, page.PageSize, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID loads the full booking view: customer, segments with seats, latest payment and cancellation.
func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.BookingView, error) {
	var v models.BookingView
	b, err := scanBooking(r.DB.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`, c.name, c.email
		FROM bookings bk
		JOIN customers c ON c.id = bk.customer_id
		WHERE bk.id=?
	`, id), &v.CustomerName, &v.CustomerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BookingView{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.BookingView{}, fmt.Errorf("get booking: %w", err)
	}
	v.Booking = b

	if err := r.loadSegments(ctx, &v); err != nil {
		return models.BookingView{}, err
	}
	if err := r.loadSeats(ctx, &v); err != nil {
		return models.BookingView{}, err
	}

	p, err := PaymentRepository{DB: r.DB}.LatestForBooking(ctx, id)
	switch {
	case err == nil:
		v.Payment = &p
		v.PaymentMethod = p.PaymentMethod
		v.PaymentStatus = string(p.Status)
	case !domain.IsNotFound(err):
		return models.BookingView{}, err
	}

	var c models.Cancellation
	err = r.DB.QueryRowContext(ctx, `
		SELECT id, booking_id, penalty_amount, refund_amount, COALESCE(reason, ''), cancelled_at
		FROM cancellations WHERE booking_id=?
	`, id).Scan(&c.ID, &c.BookingID, &c.PenaltyAmount, &c.RefundAmount, &c.Reason, &c.CancelledAt)
	switch {
	case err == nil:
		v.Cancellation = &c
	case !errors.Is(err, sql.ErrNoRows):
		return models.BookingView{}, fmt.Errorf("get cancellation: %w", err)
	}
	return v, nil
}

func (r BookingRepository) loadSegments(ctx context.Context, v *models.BookingView) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT sg.id, sg.booking_id, sg.schedule_id, sg.segment_order, sg.seat_count, sg.amount,
			COALESCE(sg.boarding_stop_id, 0), COALESCE(sg.dropping_stop_id, 0),
			r.source, r.destination, b.bus_number
		FROM booking_segments sg
		JOIN bus_schedules bs ON bs.id = sg.schedule_id
		JOIN routes r ON r.id = bs.route_id
		JOIN buses b ON b.id = bs.bus_id
		WHERE sg.booking_id=?
		ORDER BY sg.segment_order
	`, v.ID)
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sg models.BookingSegment
		var source, dest, bus string
		if err := rows.Scan(&sg.ID, &sg.BookingID, &sg.ScheduleID, &sg.SegmentOrder, &sg.SeatCount, &sg.Amount,
			&sg.BoardingStopID, &sg.DroppingStopID, &source, &dest, &bus); err != nil {
			return err
		}
		if len(v.Segments) == 0 {
			v.RouteSource, v.BusNumber = source, bus
		}
		v.RouteDest = dest
		v.Segments = append(v.Segments, sg)
	}
	return rows.Err()
}

func (r BookingRepository) loadSeats(ctx context.Context, v *models.BookingView) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, booking_id, segment_id, schedule_id, seat_number, seat_type, seat_position,
			passenger_name, passenger_age, passenger_gender
		FROM booked_seats
		WHERE booking_id=?
		ORDER BY segment_id, seat_number
	`, v.ID)
	if err != nil {
		return fmt.Errorf("list booked seats: %w", err)
	}
	defer rows.Close()

	bySegment := map[int64]int{}
	for i, sg := range v.Segments {
		bySegment[sg.ID] = i
	}
	for rows.Next() {
		var s models.BookedSeat
		if err := rows.Scan(&s.ID, &s.BookingID, &s.SegmentID, &s.ScheduleID, &s.SeatNumber, &s.SeatType, &s.SeatPosition,
			&s.PassengerName, &s.PassengerAge, &s.PassengerGender); err != nil {
			return err
		}
		if i, ok := bySegment[s.SegmentID]; ok {
			v.Segments[i].Seats = append(v.Segments[i].Seats, s)
		}
	}
	return rows.Err()
}
