package services

import (
	"context"
	"fmt"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

type RouteService struct {
	Routes    RouteStore
	Schedules ScheduleStore
}

type CreateStopInput struct {
	Name     string `json:"name" binding:"required,max=120"`
	City     string `json:"city" binding:"required,max=120"`
	Landmark string `json:"landmark" binding:"max=190"`
}

type CreateRouteInput struct {
	Source                   string  `json:"source" binding:"required,max=120"`
	Destination              string  `json:"destination" binding:"required,max=120"`
	DistanceKm               float64 `json:"distanceKm" binding:"gt=0"`
	EstimatedDurationMinutes int     `json:"estimatedDurationMinutes" binding:"gte=30,lte=1440"`
	BasePrice                float64 `json:"basePrice" binding:"gt=0"`
}

type RouteStopInput struct {
	StopID        int64  `json:"stopId" binding:"required,gt=0"`
	OrderNumber   int    `json:"orderNumber" binding:"required,min=1"`
	ScheduleID    *int64 `json:"scheduleId"`
	ArrivalTime   string `json:"arrivalTime" binding:"omitempty,clock"`
	DepartureTime string `json:"departureTime" binding:"omitempty,clock"`
}

// CreateStop is allowed for vendors and admins.
func (s RouteService) CreateStop(ctx context.Context, rc domain.RequestContext, in CreateStopInput) (models.Stop, error) {
	if !rc.HasRole(domain.RoleAdmin) && !rc.HasRole(domain.RoleVendor) {
		return models.Stop{}, domain.ForbiddenError{Msg: "admin or vendor role required"}
	}
	st := models.Stop{
		Name:     utils.NormalizeSpace(in.Name),
		City:     utils.NormalizeSpace(in.City),
		Landmark: utils.NormalizeSpace(in.Landmark),
	}
	if st.Name == "" || st.City == "" {
		return models.Stop{}, domain.ValidationError{Field: "name", Msg: "name and city are required"}
	}
	created, err := s.Routes.CreateStop(ctx, st)
	if err != nil {
		return models.Stop{}, domain.Internal("failed to create stop", err)
	}
	utils.LogEvent(rc.RequestID, "route", "create_stop", fmt.Sprintf("stop_id=%d city=%s", created.ID, created.City))
	return created, nil
}

func (s RouteService) ListStops(ctx context.Context, city string) ([]models.Stop, error) {
	return s.Routes.ListStops(ctx, utils.NormalizeSpace(city))
}

func (s RouteService) CreateRoute(ctx context.Context, rc domain.RequestContext, in CreateRouteInput) (models.Route, error) {
	if err := rc.RequireAdmin(); err != nil {
		return models.Route{}, err
	}
	rt := models.Route{
		Source:                   utils.NormalizeSpace(in.Source),
		Destination:              utils.NormalizeSpace(in.Destination),
		DistanceKm:               in.DistanceKm,
		EstimatedDurationMinutes: in.EstimatedDurationMinutes,
		BasePrice:                domain.RoundMoney(in.BasePrice),
	}
	if strings.EqualFold(rt.Source, rt.Destination) {
		return models.Route{}, domain.ValidationError{Field: "destination", Msg: "must differ from source"}
	}
	created, err := s.Routes.CreateRoute(ctx, rt)
	if err != nil {
		return models.Route{}, domain.Internal("failed to create route", err)
	}
	utils.LogEvent(rc.RequestID, "route", "create", fmt.Sprintf("route_id=%d %s-%s", created.ID, created.Source, created.Destination))
	return created, nil
}

func (s RouteService) ListRoutes(ctx context.Context) ([]models.Route, error) {
	return s.Routes.ListRoutes(ctx)
}

// AddRouteStop appends a stop to a route, or overrides its timing for one schedule.
func (s RouteService) AddRouteStop(ctx context.Context, rc domain.RequestContext, routeID int64, in RouteStopInput) (models.RouteStop, error) {
	if err := rc.RequireAdmin(); err != nil {
		return models.RouteStop{}, err
	}
	if _, err := s.Routes.GetRoute(ctx, routeID); err != nil {
		return models.RouteStop{}, err
	}
	var scheduleID int64
	if in.ScheduleID != nil {
		scheduleID = *in.ScheduleID
		sched, err := s.Schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return models.RouteStop{}, err
		}
		if sched.RouteID != routeID {
			return models.RouteStop{}, domain.ValidationError{Field: "scheduleId", Msg: "schedule runs a different route"}
		}
	}
	existing, err := s.Routes.ListRouteStops(ctx, routeID, scheduleID)
	if err != nil {
		return models.RouteStop{}, domain.Internal("failed to load route stops", err)
	}
	for _, rs := range existing {
		sameScope := (rs.ScheduleID == nil) == (in.ScheduleID == nil)
		if !sameScope {
			continue
		}
		if rs.StopID == in.StopID {
			return models.RouteStop{}, domain.ConflictError{Resource: "route stop", Msg: "stop already on route"}
		}
		if rs.OrderNumber == in.OrderNumber {
			return models.RouteStop{}, domain.ConflictError{Resource: "route stop", Msg: fmt.Sprintf("order %d already taken", in.OrderNumber)}
		}
	}
	rs, err := s.Routes.AddRouteStop(ctx, models.RouteStop{
		RouteID:       routeID,
		StopID:        in.StopID,
		ScheduleID:    in.ScheduleID,
		OrderNumber:   in.OrderNumber,
		ArrivalTime:   utils.ShortClock(in.ArrivalTime),
		DepartureTime: utils.ShortClock(in.DepartureTime),
	})
	if err != nil {
		return models.RouteStop{}, domain.Internal("failed to add route stop", err)
	}
	utils.LogEvent(rc.RequestID, "route", "add_stop", fmt.Sprintf("route_id=%d stop_id=%d order=%d", routeID, in.StopID, in.OrderNumber))
	return rs, nil
}

func (s RouteService) ListRouteStops(ctx context.Context, routeID, scheduleID int64) ([]models.RouteStop, error) {
	if _, err := s.Routes.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}
	return s.Routes.ListRouteStops(ctx, routeID, scheduleID)
}
