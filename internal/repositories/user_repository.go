package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, name, email, phone, password_hash, role, status, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

func insertUser(ctx context.Context, q intdb.Querier, u models.User) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.Name, strings.ToLower(u.Email), u.Phone, u.PasswordHash, u.Role, u.Status)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return 0, domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

// CreateCustomer inserts the user and its customer profile atomically.
func (r UserRepository) CreateCustomer(ctx context.Context, u models.User) (models.User, models.Customer, error) {
	var c models.Customer
	err := intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		id, err := insertUser(ctx, tx, u)
		if err != nil {
			return err
		}
		u.ID = id
		res, err := tx.ExecContext(ctx, `
			INSERT INTO customers (user_id, name, email, phone) VALUES (?, ?, ?, ?)
		`, id, u.Name, strings.ToLower(u.Email), u.Phone)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		cid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c = models.Customer{ID: cid, UserID: id, Name: u.Name, Email: strings.ToLower(u.Email), Phone: u.Phone}
		return nil
	})
	if err != nil {
		return models.User{}, models.Customer{}, err
	}
	return u, c, nil
}

// CreateVendor inserts the user and a Pending vendor profile atomically.
func (r UserRepository) CreateVendor(ctx context.Context, u models.User, v models.Vendor) (models.User, models.Vendor, error) {
	err := intdb.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		id, err := insertUser(ctx, tx, u)
		if err != nil {
			return err
		}
		u.ID = id
		v.UserID = id
		res, err := tx.ExecContext(ctx, `
			INSERT INTO vendors (user_id, company_name, contact_email, phone, status)
			VALUES (?, ?, ?, ?, ?)
		`, id, v.CompanyName, strings.ToLower(v.ContactEmail), v.Phone, v.Status)
		if err != nil {
			return fmt.Errorf("insert vendor: %w", err)
		}
		v.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return models.User{}, models.Vendor{}, err
	}
	return u, v, nil
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r UserRepository) GetCustomerByUserID(ctx context.Context, userID int64) (models.Customer, error) {
	var c models.Customer
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, name, email, phone FROM customers WHERE user_id=? LIMIT 1
	`, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, domain.NotFoundError{Resource: "customer", Err: err}
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Create inserts a bare user (used for the bootstrap admin).
func (r UserRepository) Create(ctx context.Context, u models.User) (models.User, error) {
	id, err := insertUser(ctx, r.DB, u)
	if err != nil {
		return models.User{}, err
	}
	u.ID = id
	return u, nil
}
