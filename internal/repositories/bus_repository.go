package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type BusRepository struct {
	DB *sql.DB
}

const busColumns = `id, vendor_id, bus_number, bus_type, total_seats, seat_layout_template_id, status, created_at, updated_at`

func scanBus(row interface{ Scan(...any) error }) (models.Bus, error) {
	var b models.Bus
	err := row.Scan(&b.ID, &b.VendorID, &b.BusNumber, &b.BusType, &b.TotalSeats, &b.SeatLayoutTemplateID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r BusRepository) Create(ctx context.Context, b models.Bus) (models.Bus, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO buses (vendor_id, bus_number, bus_type, total_seats, seat_layout_template_id, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.VendorID, b.BusNumber, b.BusType, b.TotalSeats, b.SeatLayoutTemplateID, b.Status)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return models.Bus{}, domain.ConflictError{Resource: "bus", Msg: "bus number already registered", Err: err}
		}
		return models.Bus{}, fmt.Errorf("insert bus: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

func (r BusRepository) GetByID(ctx context.Context, id int64) (models.Bus, error) {
	b, err := scanBus(r.DB.QueryRowContext(ctx, `SELECT `+busColumns+` FROM buses WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bus{}, domain.NotFoundError{Resource: "bus", Err: err}
	}
	if err != nil {
		return models.Bus{}, fmt.Errorf("get bus: %w", err)
	}
	return b, nil
}

func (r BusRepository) ListByVendor(ctx context.Context, vendorID int64) ([]models.Bus, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+busColumns+` FROM buses WHERE vendor_id=? ORDER BY id`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	defer rows.Close()

	out := []models.Bus{}
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update changes type and status of a bus owned by vendorID.
func (r BusRepository) Update(ctx context.Context, b models.Bus) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE buses SET bus_type=?, status=?, updated_at=NOW() WHERE id=? AND vendor_id=?
	`, b.BusType, b.Status, b.ID, b.VendorID)
	if err != nil {
		return fmt.Errorf("update bus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "bus"}
	}
	return nil
}
