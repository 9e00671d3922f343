package services

import (
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

const (
	testVendorID   int64 = 7
	testCustomerID int64 = 100
	testBusID      int64 = 1
	testRouteID    int64 = 1
	testScheduleID int64 = 10
)

var (
	vendorRC   = domain.RequestContext{RequestID: "req-v", UserID: 2, Role: domain.RoleVendor, VendorID: testVendorID}
	customerRC = domain.RequestContext{RequestID: "req-c", UserID: 3, Role: domain.RoleCustomer, CustomerID: testCustomerID}
	adminRC    = domain.RequestContext{RequestID: "req-a", UserID: 1, Role: domain.RoleAdmin}
)

type world struct {
	schedules *fakeSchedules
	buses     *fakeBuses
	routes    *fakeRoutes
	layouts   *fakeLayouts
	vendors   *fakeVendors
	bookings  *fakeBookings
	payments  *fakePayments
	events    *fakeEvents
	gateway   *fakeGateway
}

func testLayout() models.SeatLayoutTemplate {
	seats := []models.SeatLayoutDetail{
		{SeatNumber: "1", SeatType: models.SeatTypeSeater, SeatPosition: "Window", RowNo: 1, ColNo: 1, Deck: "Lower"},
		{SeatNumber: "2", SeatType: models.SeatTypeSeater, SeatPosition: "Aisle", RowNo: 1, ColNo: 2, Deck: "Lower"},
		{SeatNumber: "3", SeatType: models.SeatTypeSeater, SeatPosition: "Window", RowNo: 2, ColNo: 1, Deck: "Lower"},
		{SeatNumber: "4", SeatType: models.SeatTypeSeater, SeatPosition: "Aisle", RowNo: 2, ColNo: 2, Deck: "Lower"},
		{SeatNumber: "5", SeatType: models.SeatTypeSeater, SeatPosition: "Window", RowNo: 3, ColNo: 1, Deck: "Lower"},
		{SeatNumber: "6", SeatType: models.SeatTypeSeater, SeatPosition: "Aisle", RowNo: 3, ColNo: 2, Deck: "Lower"},
		{SeatNumber: "7", SeatType: models.SeatTypeSeater, SeatPosition: "Window", RowNo: 4, ColNo: 1, Deck: "Lower"},
		{SeatNumber: "U1", SeatType: models.SeatTypeSleeper, SeatPosition: "Window", RowNo: 1, ColNo: 1, Deck: "Upper"},
	}
	return models.SeatLayoutTemplate{ID: 1, Name: "2x1 mixed", Rows: 4, Columns: 2, TotalSeats: len(seats), Seats: seats}
}

func testSchedule(id int64, date time.Time, dep, arr string, offset int) models.ScheduleDetail {
	return models.ScheduleDetail{
		BusSchedule: models.BusSchedule{
			ID: id, BusID: testBusID, RouteID: testRouteID, TravelDate: date,
			DepartureTime: dep, ArrivalTime: arr, ArrivalDayOffset: offset,
			AvailableSeats: 8, Status: models.ScheduleScheduled,
		},
		VendorID: testVendorID, BusNumber: "KA01AB1234", TotalSeats: 8,
		Source: "Bengaluru", Destination: "Chennai", BasePrice: 1000,
	}
}

func newWorld() *world {
	w := &world{
		schedules: newFakeSchedules(),
		buses: &fakeBuses{buses: map[int64]models.Bus{
			testBusID: {ID: testBusID, VendorID: testVendorID, BusNumber: "KA01AB1234", BusType: "AC Sleeper", TotalSeats: 8, SeatLayoutTemplateID: 1, Status: models.BusActive},
		}, nextID: testBusID},
		routes: &fakeRoutes{
			routes: map[int64]models.Route{testRouteID: {ID: testRouteID, Source: "Bengaluru", Destination: "Chennai", BasePrice: 1000}},
			routeStops: map[int64][]models.RouteStop{testRouteID: {
				{ID: 1, RouteID: testRouteID, StopID: 11, OrderNumber: 1, StopName: "Majestic"},
				{ID: 2, RouteID: testRouteID, StopID: 12, OrderNumber: 2, StopName: "Hosur"},
				{ID: 3, RouteID: testRouteID, StopID: 13, OrderNumber: 3, StopName: "Vellore"},
				{ID: 4, RouteID: testRouteID, StopID: 14, OrderNumber: 5, StopName: "Koyambedu"},
			}},
		},
		layouts: &fakeLayouts{templates: map[int64]models.SeatLayoutTemplate{1: testLayout()}},
		vendors: &fakeVendors{vendors: map[int64]models.Vendor{
			testVendorID: {ID: testVendorID, UserID: 2, CompanyName: "Sharma Travels", Status: models.VendorApproved},
		}},
		bookings: newFakeBookings(),
		events:   &fakeEvents{},
		gateway:  &fakeGateway{validSig: true},
	}
	w.payments = newFakePayments(w.bookings)
	// Wednesday 2025-03-05 22:00 -> 06:00 next day.
	w.schedules.add(testSchedule(testScheduleID, time.Date(2025, 3, 5, 0, 0, 0, 0, ist), "22:00", "06:00", 1))
	w.schedules.nextID = 100
	return w
}

func (w *world) scheduleService() ScheduleService {
	return ScheduleService{Schedules: w.schedules, Buses: w.buses, Routes: w.routes, Layouts: w.layouts, Vendors: w.vendors, Location: ist, Now: fixedNow}
}

func (w *world) bookingService() BookingService {
	n := 0
	return BookingService{
		Bookings: w.bookings, Schedules: w.schedules, Buses: w.buses, Layouts: w.layouts, Routes: w.routes,
		Payments: w.payments, Events: w.events, Hold: 10 * time.Minute, Location: ist, Now: fixedNow,
		NewPNR: func() string { n++; return "PNR000000" + string(rune('0'+n)) },
	}
}

func (w *world) cancellationService(now time.Time) CancellationService {
	return CancellationService{Bookings: w.bookings, Payments: w.payments, Gateway: w.gateway, Events: w.events, Now: func() time.Time { return now }}
}

func passengers(n int) []models.Passenger {
	out := make([]models.Passenger, n)
	for i := range out {
		out[i] = models.Passenger{Name: "Traveller", Age: 30, Gender: "Female"}
	}
	return out
}
