package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/events"
	"busbooking/internal/gateway"
	"busbooking/internal/repositories"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// fixedNow is Monday 2025-03-03 09:00 IST.
func fixedNow() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, ist) }

func scheduleKey(busID, routeID int64, d time.Time) string {
	return fmt.Sprintf("%d/%d/%s", busID, routeID, d.Format("2006-01-02"))
}

type fakeSchedules struct {
	details  map[int64]models.ScheduleDetail
	existing map[string]bool
	held     map[int64][]string
	active   int
	nextID   int64
	batchErr error
	updated  []models.BusSchedule
	deleted  []int64
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{details: map[int64]models.ScheduleDetail{}, existing: map[string]bool{}, held: map[int64][]string{}}
}

func (f *fakeSchedules) add(d models.ScheduleDetail) {
	f.details[d.ID] = d
	f.existing[scheduleKey(d.BusID, d.RouteID, d.TravelDate)] = true
}

func (f *fakeSchedules) Create(_ context.Context, s models.BusSchedule) (models.BusSchedule, error) {
	if f.existing[scheduleKey(s.BusID, s.RouteID, s.TravelDate)] {
		return models.BusSchedule{}, domain.ConflictError{Resource: "schedule"}
	}
	f.nextID++
	s.ID = f.nextID
	f.add(models.ScheduleDetail{BusSchedule: s})
	return s, nil
}

func (f *fakeSchedules) Exists(_ context.Context, busID, routeID int64, date time.Time) (bool, error) {
	return f.existing[scheduleKey(busID, routeID, date)], nil
}

func (f *fakeSchedules) CreateBatch(_ context.Context, tpl models.BusSchedule, dates []time.Time) ([]models.BusSchedule, []time.Time, error) {
	if f.batchErr != nil {
		return nil, nil, f.batchErr
	}
	var created []models.BusSchedule
	var skipped []time.Time
	for _, d := range dates {
		if f.existing[scheduleKey(tpl.BusID, tpl.RouteID, d)] {
			skipped = append(skipped, d)
			continue
		}
		s := tpl
		s.TravelDate = d
		f.nextID++
		s.ID = f.nextID
		f.add(models.ScheduleDetail{BusSchedule: s})
		created = append(created, s)
	}
	return created, skipped, nil
}

func (f *fakeSchedules) GetByID(_ context.Context, id int64) (models.ScheduleDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return models.ScheduleDetail{}, domain.NotFoundError{Resource: "schedule"}
	}
	return d, nil
}

func (f *fakeSchedules) ListByVendor(_ context.Context, vendorID int64, _ time.Time) ([]models.ScheduleDetail, error) {
	out := []models.ScheduleDetail{}
	for _, d := range f.details {
		if d.VendorID == vendorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeSchedules) Search(_ context.Context, source, destination string, date time.Time) ([]models.ScheduleDetail, error) {
	out := []models.ScheduleDetail{}
	for _, d := range f.details {
		if d.Source == source && d.Destination == destination && d.TravelDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeSchedules) Update(_ context.Context, s models.BusSchedule) error {
	f.updated = append(f.updated, s)
	return nil
}

func (f *fakeSchedules) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSchedules) CountActiveBookings(context.Context, int64) (int, error) { return f.active, nil }

func (f *fakeSchedules) HeldSeats(_ context.Context, id int64) ([]string, error) { return f.held[id], nil }

type fakeBuses struct {
	buses  map[int64]models.Bus
	nextID int64
}

func (f *fakeBuses) Create(_ context.Context, b models.Bus) (models.Bus, error) {
	f.nextID++
	b.ID = f.nextID
	if f.buses == nil {
		f.buses = map[int64]models.Bus{}
	}
	f.buses[b.ID] = b
	return b, nil
}

func (f *fakeBuses) GetByID(_ context.Context, id int64) (models.Bus, error) {
	b, ok := f.buses[id]
	if !ok {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	return b, nil
}

func (f *fakeBuses) ListByVendor(_ context.Context, vendorID int64) ([]models.Bus, error) {
	out := []models.Bus{}
	for _, b := range f.buses {
		if b.VendorID == vendorID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBuses) Update(_ context.Context, b models.Bus) error {
	f.buses[b.ID] = b
	return nil
}

type fakeRoutes struct {
	routes     map[int64]models.Route
	routeStops map[int64][]models.RouteStop
	stops      []models.Stop
}

func (f *fakeRoutes) CreateStop(_ context.Context, s models.Stop) (models.Stop, error) {
	s.ID = int64(len(f.stops) + 1)
	f.stops = append(f.stops, s)
	return s, nil
}

func (f *fakeRoutes) ListStops(context.Context, string) ([]models.Stop, error) { return f.stops, nil }

func (f *fakeRoutes) CreateRoute(_ context.Context, r models.Route) (models.Route, error) {
	r.ID = int64(len(f.routes) + 1)
	f.routes[r.ID] = r
	return r, nil
}

func (f *fakeRoutes) GetRoute(_ context.Context, id int64) (models.Route, error) {
	r, ok := f.routes[id]
	if !ok {
		return models.Route{}, domain.NotFoundError{Resource: "route"}
	}
	return r, nil
}

func (f *fakeRoutes) ListRoutes(context.Context) ([]models.Route, error) {
	out := []models.Route{}
	for _, r := range f.routes {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoutes) AddRouteStop(_ context.Context, rs models.RouteStop) (models.RouteStop, error) {
	rs.ID = int64(len(f.routeStops[rs.RouteID]) + 1)
	f.routeStops[rs.RouteID] = append(f.routeStops[rs.RouteID], rs)
	return rs, nil
}

func (f *fakeRoutes) ListRouteStops(_ context.Context, routeID, scheduleID int64) ([]models.RouteStop, error) {
	var routeLevel, scheduled []models.RouteStop
	for _, rs := range f.routeStops[routeID] {
		switch {
		case rs.ScheduleID == nil:
			routeLevel = append(routeLevel, rs)
		case *rs.ScheduleID == scheduleID:
			scheduled = append(scheduled, rs)
		}
	}
	out := routeLevel
	if len(scheduled) > 0 {
		out = scheduled
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

type fakeLayouts struct {
	templates map[int64]models.SeatLayoutTemplate
}

func (f *fakeLayouts) Create(_ context.Context, t models.SeatLayoutTemplate) (models.SeatLayoutTemplate, error) {
	t.ID = int64(len(f.templates) + 1)
	f.templates[t.ID] = t
	return t, nil
}

func (f *fakeLayouts) Update(_ context.Context, t models.SeatLayoutTemplate) error {
	f.templates[t.ID] = t
	return nil
}

func (f *fakeLayouts) Delete(_ context.Context, id int64) error {
	delete(f.templates, id)
	return nil
}

func (f *fakeLayouts) List(context.Context) ([]models.SeatLayoutTemplate, error) {
	out := []models.SeatLayoutTemplate{}
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeLayouts) GetByID(_ context.Context, id int64) (models.SeatLayoutTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return models.SeatLayoutTemplate{}, domain.NotFoundError{Resource: "seat layout"}
	}
	return t, nil
}

func (f *fakeLayouts) Seats(_ context.Context, id int64) ([]models.SeatLayoutDetail, error) {
	return f.templates[id].Seats, nil
}

type fakeVendors struct {
	vendors map[int64]models.Vendor
	docKey  string
}

func (f *fakeVendors) GetByID(_ context.Context, id int64) (models.Vendor, error) {
	v, ok := f.vendors[id]
	if !ok {
		return models.Vendor{}, domain.NotFoundError{Resource: "vendor"}
	}
	return v, nil
}

func (f *fakeVendors) GetByUserID(_ context.Context, userID int64) (models.Vendor, error) {
	for _, v := range f.vendors {
		if v.UserID == userID {
			return v, nil
		}
	}
	return models.Vendor{}, domain.NotFoundError{Resource: "vendor"}
}

func (f *fakeVendors) List(_ context.Context, status models.VendorStatus, _ domain.Pagination) ([]models.Vendor, error) {
	out := []models.Vendor{}
	for _, v := range f.vendors {
		if status == "" || v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVendors) UpdateStatus(_ context.Context, id int64, status models.VendorStatus, reason string) error {
	v, ok := f.vendors[id]
	if !ok {
		return domain.NotFoundError{Resource: "vendor"}
	}
	v.Status, v.RejectionReason = status, reason
	f.vendors[id] = v
	return nil
}

func (f *fakeVendors) SetDocumentKey(_ context.Context, id int64, key string) error {
	v := f.vendors[id]
	v.DocumentKey = key
	f.vendors[id] = v
	f.docKey = key
	return nil
}

// fakeBookings keeps seat holds per schedule the way the seat_lock column does.
type fakeBookings struct {
	views      map[int64]models.BookingView
	holds      map[int64]map[string]int64
	nextID     int64
	dupPNRs    int
	cancelled  []models.Cancellation
	expireCall int
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{views: map[int64]models.BookingView{}, holds: map[int64]map[string]int64{}}
}

func (f *fakeBookings) Create(_ context.Context, b models.Booking) (models.Booking, error) {
	if f.dupPNRs > 0 {
		f.dupPNRs--
		return models.Booking{}, repositories.ErrDuplicatePNR
	}
	for _, sg := range b.Segments {
		for _, st := range sg.Seats {
			if _, taken := f.holds[sg.ScheduleID][st.SeatNumber]; taken {
				return models.Booking{}, domain.ConflictError{Resource: "seat", Msg: "already booked: " + st.SeatNumber}
			}
		}
	}
	f.nextID++
	b.ID = f.nextID
	for _, sg := range b.Segments {
		if f.holds[sg.ScheduleID] == nil {
			f.holds[sg.ScheduleID] = map[string]int64{}
		}
		for _, st := range sg.Seats {
			f.holds[sg.ScheduleID][st.SeatNumber] = b.ID
		}
	}
	f.views[b.ID] = models.BookingView{Booking: b}
	return b, nil
}

func (f *fakeBookings) release(id int64) {
	for _, seats := range f.holds {
		for n, owner := range seats {
			if owner == id {
				delete(seats, n)
			}
		}
	}
}

func (f *fakeBookings) Cancel(_ context.Context, customerID int64, c models.Cancellation) error {
	v, ok := f.views[c.BookingID]
	if !ok || v.CustomerID != customerID {
		return domain.NotFoundError{Resource: "booking"}
	}
	if !v.Status.CanTransitionTo(models.BookingCancelled) {
		return domain.ValidationError{Field: "booking", Msg: "booking is already cancelled"}
	}
	v.Status = models.BookingCancelled
	v.CancelledAt = &c.CancelledAt
	v.Cancellation = &c
	f.views[c.BookingID] = v
	f.cancelled = append(f.cancelled, c)
	f.release(c.BookingID)
	return nil
}

func (f *fakeBookings) Expire(_ context.Context, id int64, now time.Time) (bool, error) {
	f.expireCall++
	v, ok := f.views[id]
	if !ok || v.Status != models.BookingPending || v.ReservationExpiryTime == nil || v.ReservationExpiryTime.After(now) {
		return false, nil
	}
	v.Status = models.BookingExpired
	f.views[id] = v
	f.release(id)
	return true, nil
}

func (f *fakeBookings) ListExpired(_ context.Context, now time.Time, limit int) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, v := range f.views {
		if v.Status == models.BookingPending && v.ReservationExpiryTime != nil && !v.ReservationExpiryTime.After(now) {
			out = append(out, v.Booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBookings) ListByCustomer(_ context.Context, customerID int64, _ domain.Pagination) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, v := range f.views {
		if v.CustomerID == customerID {
			out = append(out, v.Booking)
		}
	}
	return out, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id int64) (models.BookingView, error) {
	v, ok := f.views[id]
	if !ok {
		return models.BookingView{}, domain.NotFoundError{Resource: "booking"}
	}
	return v, nil
}

type fakePayments struct {
	byOrder  map[string]models.Payment
	bookings *fakeBookings
	statuses map[string]models.PaymentStatus
}

func newFakePayments(b *fakeBookings) *fakePayments {
	return &fakePayments{byOrder: map[string]models.Payment{}, bookings: b, statuses: map[string]models.PaymentStatus{}}
}

func (f *fakePayments) Create(_ context.Context, p models.Payment) (models.Payment, error) {
	p.ID = int64(len(f.byOrder) + 1)
	f.byOrder[p.GatewayOrderID] = p
	return p, nil
}

func (f *fakePayments) GetByOrderID(_ context.Context, orderID string) (models.Payment, error) {
	p, ok := f.byOrder[orderID]
	if !ok {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, nil
}

func (f *fakePayments) LatestForBooking(_ context.Context, bookingID int64) (models.Payment, error) {
	for _, p := range f.byOrder {
		if p.BookingID == bookingID {
			return p, nil
		}
	}
	return models.Payment{}, domain.NotFoundError{Resource: "payment"}
}

func (f *fakePayments) MarkPaid(_ context.Context, p models.Payment, now time.Time) error {
	v, ok := f.bookings.views[p.BookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	if v.Status != models.BookingPending {
		return domain.ValidationError{Field: "booking", Msg: "booking is " + string(v.Status)}
	}
	if v.ReservationExpiryTime != nil && !v.ReservationExpiryTime.After(now) {
		return domain.ValidationError{Field: "booking", Msg: "reservation has expired"}
	}
	p.Status = models.PaymentPaid
	f.byOrder[p.GatewayOrderID] = p
	v.Status = models.BookingConfirmed
	v.ReservationExpiryTime = nil
	v.Payment = &p
	v.PaymentMethod = p.PaymentMethod
	f.bookings.views[p.BookingID] = v
	return nil
}

func (f *fakePayments) MarkReversed(_ context.Context, p models.Payment, status models.PaymentStatus) error {
	p.Status = status
	f.byOrder[p.GatewayOrderID] = p
	f.statuses[p.GatewayOrderID] = status
	return nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, orderID string, status models.PaymentStatus) error {
	f.statuses[orderID] = status
	return nil
}

type fakeUsers struct {
	users     map[string]models.User
	customers map[int64]models.Customer
	vendors   *fakeVendors
}

func newFakeUsers(v *fakeVendors) *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}, customers: map[int64]models.Customer{}, vendors: v}
}

func (f *fakeUsers) Create(_ context.Context, u models.User) (models.User, error) {
	if _, ok := f.users[u.Email]; ok {
		return models.User{}, domain.ConflictError{Resource: "user", Msg: "email already registered"}
	}
	u.ID = int64(len(f.users) + 1)
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUsers) CreateCustomer(ctx context.Context, u models.User) (models.User, models.Customer, error) {
	u, err := f.Create(ctx, u)
	if err != nil {
		return models.User{}, models.Customer{}, err
	}
	c := models.Customer{ID: int64(len(f.customers) + 100), UserID: u.ID, Name: u.Name, Email: u.Email}
	f.customers[u.ID] = c
	return u, c, nil
}

func (f *fakeUsers) CreateVendor(ctx context.Context, u models.User, v models.Vendor) (models.User, models.Vendor, error) {
	u, err := f.Create(ctx, u)
	if err != nil {
		return models.User{}, models.Vendor{}, err
	}
	v.ID = int64(len(f.vendors.vendors) + 50)
	v.UserID = u.ID
	f.vendors.vendors[v.ID] = v
	return u, v, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (f *fakeUsers) GetCustomerByUserID(_ context.Context, userID int64) (models.Customer, error) {
	c, ok := f.customers[userID]
	if !ok {
		return models.Customer{}, domain.NotFoundError{Resource: "customer"}
	}
	return c, nil
}

type fakeGateway struct {
	orders    int
	refunds   []int64
	refundErr error
	validSig  bool
}

func (f *fakeGateway) PublicKey() string { return "rzp_test_key" }

func (f *fakeGateway) CreateOrder(_ context.Context, paise int64, currency, receipt string) (gateway.Order, error) {
	f.orders++
	return gateway.Order{ID: fmt.Sprintf("order_%d", f.orders), Amount: paise, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (f *fakeGateway) Refund(_ context.Context, paymentID string, paise int64) (gateway.Refund, error) {
	if f.refundErr != nil {
		return gateway.Refund{}, f.refundErr
	}
	f.refunds = append(f.refunds, paise)
	return gateway.Refund{ID: "rfnd_1", PaymentID: paymentID, Amount: paise, Status: "processed"}, nil
}

func (f *fakeGateway) VerifySignature(string, string, string) bool { return f.validSig }

type fakeEvents struct {
	topics []string
	events []events.BookingEvent
}

func (f *fakeEvents) Publish(_ context.Context, topic string, evt events.BookingEvent) error {
	f.topics = append(f.topics, topic)
	f.events = append(f.events, evt)
	return nil
}

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
}

func (f *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.held, nil
}

func (f *fakeLocker) Unlock(context.Context, string) error {
	f.unlocked++
	return nil
}

type fakeDocuments struct {
	keys []string
}

func (f *fakeDocuments) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeDocuments) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return "https://bucket.example/" + key + "?sig=1", nil
}
