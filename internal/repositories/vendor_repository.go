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

type VendorRepository struct {
	DB *sql.DB
}

const vendorColumns = `id, user_id, company_name, contact_email, phone, status,
	COALESCE(document_key, ''), COALESCE(rejection_reason, ''), created_at, updated_at`

func scanVendor(row interface{ Scan(...any) error }) (models.Vendor, error) {
	var v models.Vendor
	err := row.Scan(&v.ID, &v.UserID, &v.CompanyName, &v.ContactEmail, &v.Phone, &v.Status,
		&v.DocumentKey, &v.RejectionReason, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r VendorRepository) GetByID(ctx context.Context, id int64) (models.Vendor, error) {
	v, err := scanVendor(r.DB.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vendor{}, domain.NotFoundError{Resource: "vendor", Err: err}
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

func (r VendorRepository) GetByUserID(ctx context.Context, userID int64) (models.Vendor, error) {
	v, err := scanVendor(r.DB.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE user_id=?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vendor{}, domain.NotFoundError{Resource: "vendor", Err: err}
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("get vendor by user: %w", err)
	}
	return v, nil
}

// List filters by status when given; newest first.
func (r VendorRepository) List(ctx context.Context, status models.VendorStatus, page domain.Pagination) ([]models.Vendor, error) {
	page = page.Normalize()
	query := `SELECT ` + vendorColumns + ` FROM vendors`
	args := []any{}
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	out := []models.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r VendorRepository) UpdateStatus(ctx context.Context, id int64, status models.VendorStatus, reason string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE vendors SET status=?, rejection_reason=?, updated_at=NOW() WHERE id=?
	`, status, intdb.NullIfEmpty(reason), id)
	if err != nil {
		return fmt.Errorf("update vendor status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "vendor"}
	}
	return nil
}

func (r VendorRepository) SetDocumentKey(ctx context.Context, id int64, key string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE vendors SET document_key=?, updated_at=NOW() WHERE id=?`, key, id)
	if err != nil {
		return fmt.Errorf("set vendor document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "vendor"}
	}
	return nil
}
