package models

import "time"

type Stop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Landmark string `json:"landmark,omitempty"`
}

type Route struct {
	ID                       int64     `json:"id"`
	Source                   string    `json:"source"`
	Destination              string    `json:"destination"`
	DistanceKm               float64   `json:"distanceKm"`
	EstimatedDurationMinutes int       `json:"estimatedDurationMinutes"`
	BasePrice                float64   `json:"basePrice"`
	CreatedAt                time.Time `json:"createdAt"`
}

// RouteStop links a stop into a route. ScheduleID is set for schedule-specific overrides.
type RouteStop struct {
	ID            int64  `json:"id"`
	RouteID       int64  `json:"routeId"`
	StopID        int64  `json:"stopId"`
	ScheduleID    *int64 `json:"scheduleId,omitempty"`
	OrderNumber   int    `json:"orderNumber"`
	ArrivalTime   string `json:"arrivalTime,omitempty"`
	DepartureTime string `json:"departureTime,omitempty"`
	StopName      string `json:"stopName,omitempty"`
	City          string `json:"city,omitempty"`
}
