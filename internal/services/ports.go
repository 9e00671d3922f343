package services

import (
	"context"
	"io"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/events"
	"busbooking/internal/gateway"
	"busbooking/internal/utils"
)

// Stores implemented by internal/repositories.

type ScheduleStore interface {
	Create(ctx context.Context, s models.BusSchedule) (models.BusSchedule, error)
	Exists(ctx context.Context, busID, routeID int64, date time.Time) (bool, error)
	CreateBatch(ctx context.Context, tpl models.BusSchedule, dates []time.Time) ([]models.BusSchedule, []time.Time, error)
	GetByID(ctx context.Context, id int64) (models.ScheduleDetail, error)
	ListByVendor(ctx context.Context, vendorID int64, from time.Time) ([]models.ScheduleDetail, error)
	Search(ctx context.Context, source, destination string, date time.Time) ([]models.ScheduleDetail, error)
	Update(ctx context.Context, s models.BusSchedule) error
	Delete(ctx context.Context, id int64) error
	CountActiveBookings(ctx context.Context, scheduleID int64) (int, error)
	HeldSeats(ctx context.Context, scheduleID int64) ([]string, error)
}

type BusStore interface {
	Create(ctx context.Context, b models.Bus) (models.Bus, error)
	GetByID(ctx context.Context, id int64) (models.Bus, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]models.Bus, error)
	Update(ctx context.Context, b models.Bus) error
}

type RouteStore interface {
	CreateStop(ctx context.Context, s models.Stop) (models.Stop, error)
	ListStops(ctx context.Context, city string) ([]models.Stop, error)
	CreateRoute(ctx context.Context, r models.Route) (models.Route, error)
	GetRoute(ctx context.Context, id int64) (models.Route, error)
	ListRoutes(ctx context.Context) ([]models.Route, error)
	AddRouteStop(ctx context.Context, rs models.RouteStop) (models.RouteStop, error)
	ListRouteStops(ctx context.Context, routeID, scheduleID int64) ([]models.RouteStop, error)
}

type LayoutStore interface {
	Create(ctx context.Context, t models.SeatLayoutTemplate) (models.SeatLayoutTemplate, error)
	Update(ctx context.Context, t models.SeatLayoutTemplate) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.SeatLayoutTemplate, error)
	GetByID(ctx context.Context, id int64) (models.SeatLayoutTemplate, error)
	Seats(ctx context.Context, templateID int64) ([]models.SeatLayoutDetail, error)
}

type BookingStore interface {
	Create(ctx context.Context, b models.Booking) (models.Booking, error)
	Cancel(ctx context.Context, customerID int64, c models.Cancellation) error
	Expire(ctx context.Context, bookingID int64, now time.Time) (bool, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	ListByCustomer(ctx context.Context, customerID int64, page domain.Pagination) ([]models.Booking, error)
	GetByID(ctx context.Context, id int64) (models.BookingView, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p models.Payment) (models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (models.Payment, error)
	LatestForBooking(ctx context.Context, bookingID int64) (models.Payment, error)
	MarkPaid(ctx context.Context, p models.Payment, now time.Time) error
	UpdateStatus(ctx context.Context, orderID string, status models.PaymentStatus) error
	MarkReversed(ctx context.Context, p models.Payment, status models.PaymentStatus) error
}

type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	CreateCustomer(ctx context.Context, u models.User) (models.User, models.Customer, error)
	CreateVendor(ctx context.Context, u models.User, v models.Vendor) (models.User, models.Vendor, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetCustomerByUserID(ctx context.Context, userID int64) (models.Customer, error)
}

type VendorStore interface {
	GetByID(ctx context.Context, id int64) (models.Vendor, error)
	GetByUserID(ctx context.Context, userID int64) (models.Vendor, error)
	List(ctx context.Context, status models.VendorStatus, page domain.Pagination) ([]models.Vendor, error)
	UpdateStatus(ctx context.Context, id int64, status models.VendorStatus, reason string) error
	SetDocumentKey(ctx context.Context, id int64, key string) error
}

// Collaborators outside the database.

type EventPublisher interface {
	Publish(ctx context.Context, topic string, evt events.BookingEvent) error
}

type PaymentGateway interface {
	PublicKey() string
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (gateway.Order, error)
	Refund(ctx context.Context, paymentID string, amountPaise int64) (gateway.Refund, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type DocumentStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func publish(ctx context.Context, pub EventPublisher, requestID, module, topic string, evt events.BookingEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, evt); err != nil {
		utils.LogError(requestID, module, "publish "+topic, err)
	}
}
