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

// RouteRepository covers stops, routes and the ordered route_stops between them.
type RouteRepository struct {
	DB *sql.DB
}

func (r RouteRepository) CreateStop(ctx context.Context, s models.Stop) (models.Stop, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO stops (name, city, landmark) VALUES (?, ?, ?)`,
		s.Name, s.City, intdb.NullIfEmpty(s.Landmark))
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return models.Stop{}, domain.ConflictError{Resource: "stop", Msg: "stop already exists in " + s.City, Err: err}
		}
		return models.Stop{}, fmt.Errorf("insert stop: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return s, err
}

func (r RouteRepository) ListStops(ctx context.Context, city string) ([]models.Stop, error) {
	query := `SELECT id, name, city, COALESCE(landmark, '') FROM stops`
	args := []any{}
	if city != "" {
		query += ` WHERE city=?`
		args = append(args, city)
	}
	query += ` ORDER BY city, name`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	defer rows.Close()

	out := []models.Stop{}
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.Landmark); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r RouteRepository) CreateRoute(ctx context.Context, rt models.Route) (models.Route, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO routes (source, destination, distance_km, estimated_duration_minutes, base_price)
		VALUES (?, ?, ?, ?, ?)
	`, rt.Source, rt.Destination, rt.DistanceKm, rt.EstimatedDurationMinutes, rt.BasePrice)
	if err != nil {
		return models.Route{}, fmt.Errorf("insert route: %w", err)
	}
	rt.ID, err = res.LastInsertId()
	return rt, err
}

const routeColumns = `id, source, destination, distance_km, estimated_duration_minutes, base_price, created_at`

func scanRoute(row interface{ Scan(...any) error }) (models.Route, error) {
	var rt models.Route
	err := row.Scan(&rt.ID, &rt.Source, &rt.Destination, &rt.DistanceKm, &rt.EstimatedDurationMinutes, &rt.BasePrice, &rt.CreatedAt)
	return rt, err
}

func (r RouteRepository) GetRoute(ctx context.Context, id int64) (models.Route, error) {
	rt, err := scanRoute(r.DB.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Route{}, domain.NotFoundError{Resource: "route", Err: err}
	}
	if err != nil {
		return models.Route{}, fmt.Errorf("get route: %w", err)
	}
	return rt, nil
}

func (r RouteRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY source, destination`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	out := []models.Route{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r RouteRepository) AddRouteStop(ctx context.Context, rs models.RouteStop) (models.RouteStop, error) {
	var sched any
	if rs.ScheduleID != nil {
		sched = *rs.ScheduleID
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO route_stops (route_id, stop_id, schedule_id, order_number, arrival_time, departure_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rs.RouteID, rs.StopID, sched, rs.OrderNumber, intdb.NullIfEmpty(rs.ArrivalTime), intdb.NullIfEmpty(rs.DepartureTime))
	if err != nil {
		return models.RouteStop{}, fmt.Errorf("insert route stop: %w", err)
	}
	rs.ID, err = res.LastInsertId()
	return rs, err
}

// ListRouteStops returns stops in travel order. When the schedule has its own stop rows
// they form its complete stop list; otherwise the route-level rows apply.
func (r RouteRepository) ListRouteStops(ctx context.Context, routeID, scheduleID int64) ([]models.RouteStop, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT rs.id, rs.route_id, rs.stop_id, rs.schedule_id, rs.order_number,
			COALESCE(TIME_FORMAT(rs.arrival_time, '%H:%i'), ''), COALESCE(TIME_FORMAT(rs.departure_time, '%H:%i'), ''),
			s.name, s.city
		FROM route_stops rs
		JOIN stops s ON s.id = rs.stop_id
		WHERE rs.route_id=? AND (rs.schedule_id IS NULL OR rs.schedule_id=?)
		ORDER BY rs.order_number
	`, routeID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list route stops: %w", err)
	}
	defer rows.Close()

	routeLevel := []models.RouteStop{}
	scheduled := []models.RouteStop{}
	for rows.Next() {
		var rs models.RouteStop
		var sched sql.NullInt64
		if err := rows.Scan(&rs.ID, &rs.RouteID, &rs.StopID, &sched, &rs.OrderNumber, &rs.ArrivalTime, &rs.DepartureTime, &rs.StopName, &rs.City); err != nil {
			return nil, err
		}
		if sched.Valid {
			v := sched.Int64
			rs.ScheduleID = &v
			scheduled = append(scheduled, rs)
			continue
		}
		routeLevel = append(routeLevel, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(scheduled) > 0 {
		return scheduled, nil
	}
	return routeLevel, nil
}
