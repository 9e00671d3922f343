package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		email VARCHAR(190) NOT NULL,
		phone VARCHAR(32) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		name VARCHAR(120) NOT NULL,
		email VARCHAR(190) NOT NULL,
		phone VARCHAR(32) NOT NULL DEFAULT '',
		UNIQUE KEY uq_customers_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		company_name VARCHAR(190) NOT NULL,
		contact_email VARCHAR(190) NOT NULL,
		phone VARCHAR(32) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'Pending',
		document_key VARCHAR(255) NULL,
		rejection_reason VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_vendors_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS seat_layout_templates (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		total_seats INT NOT NULL,
		rows_count INT NOT NULL,
		columns_count INT NOT NULL,
		description VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_layout_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS seat_layout_details (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		template_id BIGINT NOT NULL,
		seat_number VARCHAR(8) NOT NULL,
		seat_type VARCHAR(16) NOT NULL,
		seat_position VARCHAR(16) NOT NULL,
		row_no INT NOT NULL,
		col_no INT NOT NULL,
		deck VARCHAR(8) NOT NULL DEFAULT 'Lower',
		UNIQUE KEY uq_layout_seat (template_id, seat_number)
	)`,
	`CREATE TABLE IF NOT EXISTS buses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		vendor_id BIGINT NOT NULL,
		bus_number VARCHAR(32) NOT NULL,
		bus_type VARCHAR(64) NOT NULL,
		total_seats INT NOT NULL,
		seat_layout_template_id BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bus_number (bus_number),
		KEY idx_buses_vendor (vendor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stops (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		city VARCHAR(120) NOT NULL,
		landmark VARCHAR(190) NULL,
		UNIQUE KEY uq_stop_name_city (name, city)
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		source VARCHAR(120) NOT NULL,
		destination VARCHAR(120) NOT NULL,
		distance_km DECIMAL(8,2) NOT NULL DEFAULT 0,
		estimated_duration_minutes INT NOT NULL DEFAULT 0,
		base_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS route_stops (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		route_id BIGINT NOT NULL,
		stop_id BIGINT NOT NULL,
		schedule_id BIGINT NULL,
		order_number INT NOT NULL,
		arrival_time TIME NULL,
		departure_time TIME NULL,
		KEY idx_route_stops_route (route_id, order_number)
	)`,
	`CREATE TABLE IF NOT EXISTS bus_schedules (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		bus_id BIGINT NOT NULL,
		route_id BIGINT NOT NULL,
		travel_date DATE NOT NULL,
		departure_time TIME NOT NULL,
		arrival_time TIME NOT NULL,
		arrival_day_offset INT NOT NULL DEFAULT 0,
		available_seats INT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Scheduled',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_schedule_bus_route_date (bus_id, route_id, travel_date),
		KEY idx_schedule_route_date (route_id, travel_date),
		CHECK (available_seats >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		pnr VARCHAR(16) NOT NULL,
		customer_id BIGINT NOT NULL,
		total_seats INT NOT NULL,
		total_amount DECIMAL(10,2) NOT NULL,
		travel_date DATETIME NOT NULL,
		status VARCHAR(16) NOT NULL,
		booking_type VARCHAR(16) NOT NULL DEFAULT 'Direct',
		reservation_expiry_time DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		cancelled_at DATETIME NULL,
		UNIQUE KEY uq_bookings_pnr (pnr),
		KEY idx_bookings_customer (customer_id),
		KEY idx_bookings_expiry (status, reservation_expiry_time)
	)`,
	`CREATE TABLE IF NOT EXISTS booking_segments (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		schedule_id BIGINT NOT NULL,
		segment_order INT NOT NULL,
		seat_count INT NOT NULL,
		amount DECIMAL(10,2) NOT NULL,
		boarding_stop_id BIGINT NULL,
		dropping_stop_id BIGINT NULL,
		UNIQUE KEY uq_segment_order (booking_id, segment_order),
		KEY idx_segments_schedule (schedule_id)
	)`,
	`CREATE TABLE IF NOT EXISTS booked_seats (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		segment_id BIGINT NOT NULL,
		schedule_id BIGINT NOT NULL,
		seat_number VARCHAR(8) NOT NULL,
		seat_type VARCHAR(16) NOT NULL,
		seat_position VARCHAR(16) NOT NULL DEFAULT '',
		passenger_name VARCHAR(120) NOT NULL,
		passenger_age INT NOT NULL,
		passenger_gender VARCHAR(8) NOT NULL,
		seat_lock BIGINT NULL,
		UNIQUE KEY uq_seat_lock (seat_lock, seat_number),
		KEY idx_booked_seats_booking (booking_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		gateway_order_id VARCHAR(64) NOT NULL,
		gateway_payment_id VARCHAR(64) NULL,
		signature VARCHAR(128) NULL,
		amount DECIMAL(10,2) NOT NULL,
		currency VARCHAR(8) NOT NULL DEFAULT 'INR',
		payment_method VARCHAR(16) NULL,
		status VARCHAR(16) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_payments_order (gateway_order_id),
		KEY idx_payments_booking (booking_id)
	)`,
	`CREATE TABLE IF NOT EXISTS cancellations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT NOT NULL,
		penalty_amount DECIMAL(10,2) NOT NULL,
		refund_amount DECIMAL(10,2) NOT NULL,
		reason VARCHAR(255) NULL,
		cancelled_at DATETIME NOT NULL,
		UNIQUE KEY uq_cancellations_booking (booking_id)
	)`,
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	zap.L().Info("schema ready", zap.Int("tables", len(schemaStatements)))
	return nil
}
