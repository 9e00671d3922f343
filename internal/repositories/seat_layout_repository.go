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

type SeatLayoutRepository struct {
	DB *sql.DB
}

const layoutColumns = `id, name, total_seats, rows_count, columns_count, COALESCE(description, ''), created_at, updated_at`

func scanLayout(row interface{ Scan(...any) error }) (models.SeatLayoutTemplate, error) {
	var t models.SeatLayoutTemplate
	err := row.Scan(&t.ID, &t.Name, &t.TotalSeats, &t.Rows, &t.Columns, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func insertLayoutSeats(ctx context.Context, tx *sql.Tx, templateID int64, seats []models.SeatLayoutDetail) error {
	for _, s := range seats {
		deck := s.Deck
		if deck == "" {
			deck = "Lower"
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO seat_layout_details (template_id, seat_number, seat_type, seat_position, row_no, col_no, deck)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, templateID, s.SeatNumber, s.SeatType, s.SeatPosition, s.RowNo, s.ColNo, deck); err != nil {
			if intdb.IsDuplicateKey(err) {
				return domain.ConflictError{Resource: "seat layout", Msg: "duplicate seat " + s.SeatNumber, Err: err}
			}
			return fmt.Errorf("insert layout seat: %w", err)
		}
	}
	return nil
}

// Create stores the template and all of its seats in one transaction.
func (r SeatLayoutRepository) Create(ctx context.Context, t models.SeatLayoutTemplate) (models.SeatLayoutTemplate, error) {
	err := intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO seat_layout_templates (name, total_seats, rows_count, columns_count, description)
			VALUES (?, ?, ?, ?, ?)
		`, t.Name, t.TotalSeats, t.Rows, t.Columns, intdb.NullIfEmpty(t.Description))
		if err != nil {
			if intdb.IsDuplicateKey(err) {
				return domain.ConflictError{Resource: "seat layout", Msg: "name already exists", Err: err}
			}
			return fmt.Errorf("insert layout: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertLayoutSeats(ctx, tx, t.ID, t.Seats)
	})
	if err != nil {
		return models.SeatLayoutTemplate{}, err
	}
	return t, nil
}

// Update replaces the template header and its seat details atomically.
func (r SeatLayoutRepository) Update(ctx context.Context, t models.SeatLayoutTemplate) error {
	return intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE seat_layout_templates
			SET name=?, total_seats=?, rows_count=?, columns_count=?, description=?, updated_at=NOW()
			WHERE id=?
		`, t.Name, t.TotalSeats, t.Rows, t.Columns, intdb.NullIfEmpty(t.Description), t.ID)
		if err != nil {
			if intdb.IsDuplicateKey(err) {
				return domain.ConflictError{Resource: "seat layout", Msg: "name already exists", Err: err}
			}
			return fmt.Errorf("update layout: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundError{Resource: "seat layout"}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seat_layout_details WHERE template_id=?`, t.ID); err != nil {
			return fmt.Errorf("clear layout seats: %w", err)
		}
		return insertLayoutSeats(ctx, tx, t.ID, t.Seats)
	})
}

// Delete refuses templates that buses still reference.
func (r SeatLayoutRepository) Delete(ctx context.Context, id int64) error {
	return intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var inUse int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM buses WHERE seat_layout_template_id=?`, id).Scan(&inUse); err != nil {
			return fmt.Errorf("count layout usage: %w", err)
		}
		if inUse > 0 {
			return domain.ConflictError{Resource: "seat layout", Msg: fmt.Sprintf("used by %d bus(es)", inUse)}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM seat_layout_details WHERE template_id=?`, id); err != nil {
			return fmt.Errorf("delete layout seats: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM seat_layout_templates WHERE id=?`, id)
		if err != nil {
			return fmt.Errorf("delete layout: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundError{Resource: "seat layout"}
		}
		return nil
	})
}

func (r SeatLayoutRepository) List(ctx context.Context) ([]models.SeatLayoutTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+layoutColumns+` FROM seat_layout_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	out := []models.SeatLayoutTemplate{}
	for rows.Next() {
		t, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID loads the template together with its seats.
func (r SeatLayoutRepository) GetByID(ctx context.Context, id int64) (models.SeatLayoutTemplate, error) {
	t, err := scanLayout(r.DB.QueryRowContext(ctx, `SELECT `+layoutColumns+` FROM seat_layout_templates WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SeatLayoutTemplate{}, domain.NotFoundError{Resource: "seat layout", Err: err}
	}
	if err != nil {
		return models.SeatLayoutTemplate{}, fmt.Errorf("get layout: %w", err)
	}
	t.Seats, err = r.Seats(ctx, id)
	return t, err
}

func (r SeatLayoutRepository) Seats(ctx context.Context, templateID int64) ([]models.SeatLayoutDetail, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, template_id, seat_number, seat_type, seat_position, row_no, col_no, deck
		FROM seat_layout_details
		WHERE template_id=?
		ORDER BY deck, row_no, col_no
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list layout seats: %w", err)
	}
	defer rows.Close()

	out := []models.SeatLayoutDetail{}
	for rows.Next() {
		var s models.SeatLayoutDetail
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.SeatNumber, &s.SeatType, &s.SeatPosition, &s.RowNo, &s.ColNo, &s.Deck); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
