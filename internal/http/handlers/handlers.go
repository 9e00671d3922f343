package handlers

import (
	"context"

	"busbooking/internal/services"
)

// Handlers binds HTTP requests to the service layer.
type Handlers struct {
	Auth         services.AuthService
	Schedules    services.ScheduleService
	Bookings     services.BookingService
	Cancellation services.CancellationService
	Payments     services.PaymentService
	Tickets      services.TicketService
	Vendors      services.VendorService
	Fleet        services.FleetService
	Routes       services.RouteService

	// Ping checks the database for /api/health. Optional.
	Ping func(ctx context.Context) error
}
