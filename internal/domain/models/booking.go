package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingExpired   BookingStatus = "Expired"
)

// CanTransitionTo reports whether status may move to next; statuses never move backward.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled || next == BookingExpired
	case BookingConfirmed:
		return next == BookingCancelled
	default:
		return false
	}
}

// IsActive reports whether the booking still holds seats.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

type BookingType string

const (
	BookingDirect     BookingType = "Direct"
	BookingConnecting BookingType = "Connecting"
)

// Booking is the aggregate root created on checkout. It is never deleted.
type Booking struct {
	ID                    int64            `json:"id"`
	PNR                   string           `json:"pnr"`
	CustomerID            int64            `json:"customerId"`
	TotalSeats            int              `json:"totalSeats"`
	TotalAmount           float64          `json:"totalAmount"`
	TravelDate            time.Time        `json:"travelDate"`
	Status                BookingStatus    `json:"status"`
	BookingType           BookingType      `json:"bookingType"`
	ReservationExpiryTime *time.Time       `json:"reservationExpiryTime,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
	CancelledAt           *time.Time       `json:"cancelledAt,omitempty"`
	Segments              []BookingSegment `json:"segments,omitempty"`
	Payment               *Payment         `json:"payment,omitempty"`
	Cancellation          *Cancellation    `json:"cancellation,omitempty"`
}

// BookingSegment is one leg of a (possibly connecting) journey on one schedule.
type BookingSegment struct {
	ID             int64        `json:"id"`
	BookingID      int64        `json:"bookingId"`
	ScheduleID     int64        `json:"scheduleId"`
	SegmentOrder   int          `json:"segmentOrder"`
	SeatCount      int          `json:"seatCount"`
	Amount         float64      `json:"amount"`
	BoardingStopID int64        `json:"boardingStopId"`
	DroppingStopID int64        `json:"droppingStopId"`
	Seats          []BookedSeat `json:"seats,omitempty"`
}

// BookedSeat is one physical seat on one segment.
type BookedSeat struct {
	ID              int64  `json:"id"`
	BookingID       int64  `json:"bookingId"`
	SegmentID       int64  `json:"segmentId"`
	ScheduleID      int64  `json:"scheduleId"`
	SeatNumber      string `json:"seatNumber"`
	SeatType        string `json:"seatType"`
	SeatPosition    string `json:"seatPosition"`
	PassengerName   string `json:"passengerName"`
	PassengerAge    int    `json:"passengerAge"`
	PassengerGender string `json:"passengerGender"`
}

// Passenger is the per-seat traveller input.
type Passenger struct {
	Name   string `json:"name" binding:"required"`
	Age    int    `json:"age" binding:"required,min=1,max=120"`
	Gender string `json:"gender" binding:"required,oneof=Male Female Other"`
}

type Cancellation struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"bookingId"`
	PenaltyAmount float64   `json:"penaltyAmount"`
	RefundAmount  float64   `json:"refundAmount"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

// BookingView is the denormalized read used by cancellation and tickets.
type BookingView struct {
	Booking
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentStatus string `json:"paymentStatus"`
	RouteSource   string `json:"routeSource"`
	RouteDest     string `json:"routeDestination"`
	BusNumber     string `json:"busNumber"`
}
