package models

import "time"

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "Scheduled"
	ScheduleCancelled ScheduleStatus = "Cancelled"
	ScheduleCompleted ScheduleStatus = "Completed"
	ScheduleDelayed   ScheduleStatus = "Delayed"
	ScheduleDeparted  ScheduleStatus = "Departed"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleScheduled, ScheduleCancelled, ScheduleCompleted, ScheduleDelayed, ScheduleDeparted:
		return true
	}
	return false
}

// Bookable reports whether new seats may be sold on a schedule in this status.
func (s ScheduleStatus) Bookable() bool {
	return s == ScheduleScheduled || s == ScheduleDelayed
}

// BusSchedule is a bus running a route on one date.
type BusSchedule struct {
	ID               int64          `json:"id"`
	BusID            int64          `json:"busId"`
	RouteID          int64          `json:"routeId"`
	TravelDate       time.Time      `json:"travelDate"`
	DepartureTime    string         `json:"departureTime"`
	ArrivalTime      string         `json:"arrivalTime"`
	ArrivalDayOffset int            `json:"arrivalDayOffset"`
	AvailableSeats   int            `json:"availableSeats"`
	Status           ScheduleStatus `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// ScheduleDetail joins a schedule with its bus and route for listings.
type ScheduleDetail struct {
	BusSchedule
	VendorID    int64   `json:"vendorId"`
	BusNumber   string  `json:"busNumber"`
	BusType     string  `json:"busType"`
	TotalSeats  int     `json:"totalSeats"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	BasePrice   float64 `json:"basePrice"`
}

// SeatAvailability is one cell of a schedule seat map.
type SeatAvailability struct {
	SeatNumber   string `json:"seatNumber"`
	SeatType     string `json:"seatType"`
	SeatPosition string `json:"seatPosition"`
	Deck         string `json:"deck"`
	RowNo        int    `json:"rowNo"`
	ColNo        int    `json:"colNo"`
	Booked       bool   `json:"booked"`
}
