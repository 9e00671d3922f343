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
	"busbooking/internal/utils"
)

type ScheduleRepository struct {
	DB *sql.DB
}

const scheduleDetailSelect = `
	SELECT bs.id, bs.bus_id, bs.route_id, bs.travel_date,
		TIME_FORMAT(bs.departure_time, '%H:%i'), TIME_FORMAT(bs.arrival_time, '%H:%i'),
		bs.arrival_day_offset, bs.available_seats, bs.status, bs.created_at, bs.updated_at,
		b.vendor_id, b.bus_number, b.bus_type, b.total_seats,
		r.source, r.destination, r.base_price
	FROM bus_schedules bs
	JOIN buses b ON b.id = bs.bus_id
	JOIN routes r ON r.id = bs.route_id`

func scanScheduleDetail(row interface{ Scan(...any) error }) (models.ScheduleDetail, error) {
	var d models.ScheduleDetail
	err := row.Scan(&d.ID, &d.BusID, &d.RouteID, &d.TravelDate,
		&d.DepartureTime, &d.ArrivalTime,
		&d.ArrivalDayOffset, &d.AvailableSeats, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.VendorID, &d.BusNumber, &d.BusType, &d.TotalSeats,
		&d.Source, &d.Destination, &d.BasePrice)
	return d, err
}

func insertSchedule(ctx context.Context, q intdb.Querier, s models.BusSchedule) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO bus_schedules (bus_id, route_id, travel_date, departure_time, arrival_time, arrival_day_offset, available_seats, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.BusID, s.RouteID, utils.FormatDate(s.TravelDate), s.DepartureTime, s.ArrivalTime, s.ArrivalDayOffset, s.AvailableSeats, s.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Create inserts one schedule; the unique (bus, route, date) index turns races into Conflict.
func (r ScheduleRepository) Create(ctx context.Context, s models.BusSchedule) (models.BusSchedule, error) {
	id, err := insertSchedule(ctx, r.DB, s)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return models.BusSchedule{}, domain.ConflictError{Resource: "schedule", Msg: "bus already scheduled on this route for " + utils.FormatDate(s.TravelDate), Err: err}
		}
		return models.BusSchedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	s.ID = id
	return s, nil
}

func (r ScheduleRepository) Exists(ctx context.Context, busID, routeID int64, date time.Time) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bus_schedules WHERE bus_id=? AND route_id=? AND travel_date=?
	`, busID, routeID, utils.FormatDate(date)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check schedule exists: %w", err)
	}
	return n > 0, nil
}

// CreateBatch inserts one schedule per date in a single transaction. Dates that already
// have a schedule for the bus and route are skipped and reported. Any other failure rolls
// back every insert made by this call.
func (r ScheduleRepository) CreateBatch(ctx context.Context, tpl models.BusSchedule, dates []time.Time) ([]models.BusSchedule, []time.Time, error) {
	if len(dates) == 0 {
		return nil, nil, nil
	}
	var created []models.BusSchedule
	var skipped []time.Time

	err := intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		created, skipped = nil, nil

		rows, err := tx.QueryContext(ctx, `
			SELECT travel_date FROM bus_schedules
			WHERE bus_id=? AND route_id=? AND travel_date BETWEEN ? AND ?
			FOR UPDATE
		`, tpl.BusID, tpl.RouteID, utils.FormatDate(dates[0]), utils.FormatDate(dates[len(dates)-1]))
		if err != nil {
			return fmt.Errorf("lock schedule range: %w", err)
		}
		existing := map[string]bool{}
		for rows.Next() {
			var d time.Time
			if err := rows.Scan(&d); err != nil {
				rows.Close()
				return err
			}
			existing[utils.FormatDate(d)] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, d := range dates {
			if existing[utils.FormatDate(d)] {
				skipped = append(skipped, d)
				continue
			}
			s := tpl
			s.TravelDate = d
			id, err := insertSchedule(ctx, tx, s)
			if err != nil {
				if intdb.IsDuplicateKey(err) {
					skipped = append(skipped, d)
					continue
				}
				return fmt.Errorf("insert schedule %s: %w", utils.FormatDate(d), err)
			}
			s.ID = id
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, skipped, nil
}

func (r ScheduleRepository) GetByID(ctx context.Context, id int64) (models.ScheduleDetail, error) {
	d, err := scanScheduleDetail(r.DB.QueryRowContext(ctx, scheduleDetailSelect+` WHERE bs.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ScheduleDetail{}, domain.NotFoundError{Resource: "schedule", Err: err}
	}
	if err != nil {
		return models.ScheduleDetail{}, fmt.Errorf("get schedule: %w", err)
	}
	return d, nil
}

func (r ScheduleRepository) list(ctx context.Context, where string, args ...any) ([]models.ScheduleDetail, error) {
	rows, err := r.DB.QueryContext(ctx, scheduleDetailSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	out := []models.ScheduleDetail{}
	for rows.Next() {
		d, err := scanScheduleDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByVendor returns the vendor's schedules from the given date onward.
func (r ScheduleRepository) ListByVendor(ctx context.Context, vendorID int64, from time.Time) ([]models.ScheduleDetail, error) {
	return r.list(ctx, `
		WHERE b.vendor_id=? AND bs.travel_date >= ?
		ORDER BY bs.travel_date, bs.departure_time`, vendorID, utils.FormatDate(from))
}

// Search matches source and destination against route endpoints or any city on the route.
func (r ScheduleRepository) Search(ctx context.Context, source, destination string, date time.Time) ([]models.ScheduleDetail, error) {
	return r.list(ctx, `
		WHERE bs.travel_date=?
		  AND bs.status IN ('Scheduled', 'Delayed')
		  AND bs.available_seats > 0
		  AND (r.source=? OR EXISTS (
			SELECT 1 FROM route_stops a JOIN stops sa ON sa.id=a.stop_id
			WHERE a.route_id=r.id AND sa.city=?))
		  AND (r.destination=? OR EXISTS (
			SELECT 1 FROM route_stops z JOIN stops sz ON sz.id=z.stop_id
			WHERE z.route_id=r.id AND sz.city=?))
		ORDER BY bs.departure_time`,
		utils.FormatDate(date), source, source, destination, destination)
}

func (r ScheduleRepository) Update(ctx context.Context, s models.BusSchedule) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bus_schedules
		SET travel_date=?, departure_time=?, arrival_time=?, arrival_day_offset=?, status=?, updated_at=NOW()
		WHERE id=?
	`, utils.FormatDate(s.TravelDate), s.DepartureTime, s.ArrivalTime, s.ArrivalDayOffset, s.Status, s.ID)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "schedule", Msg: "bus already scheduled on this route for " + utils.FormatDate(s.TravelDate), Err: err}
		}
		return fmt.Errorf("update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "schedule"}
	}
	return nil
}

const activeBookingsOnSchedule = `
	SELECT COUNT(DISTINCT bk.id)
	FROM booking_segments sg
	JOIN bookings bk ON bk.id = sg.booking_id
	WHERE sg.schedule_id=? AND bk.status IN ('Pending', 'Confirmed')`

func (r ScheduleRepository) CountActiveBookings(ctx context.Context, scheduleID int64) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, activeBookingsOnSchedule, scheduleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return n, nil
}

// Delete removes a schedule unless it still carries active bookings.
func (r ScheduleRepository) Delete(ctx context.Context, id int64) error {
	return intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM bus_schedules WHERE id=? FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError{Resource: "schedule", Err: err}
		}
		if err != nil {
			return fmt.Errorf("lock schedule: %w", err)
		}
		var n int
		if err := tx.QueryRowContext(ctx, activeBookingsOnSchedule, id).Scan(&n); err != nil {
			return fmt.Errorf("count active bookings: %w", err)
		}
		if n > 0 {
			return domain.ConflictError{Resource: "schedule", Msg: fmt.Sprintf("%d active booking(s) exist", n)}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM route_stops WHERE schedule_id=?`, id); err != nil {
			return fmt.Errorf("delete schedule stops: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM bus_schedules WHERE id=?`, id); err != nil {
			return fmt.Errorf("delete schedule: %w", err)
		}
		return nil
	})
}

// HeldSeats lists seat numbers currently locked on the schedule.
func (r ScheduleRepository) HeldSeats(ctx context.Context, scheduleID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT seat_number FROM booked_seats WHERE seat_lock=?`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list held seats: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
