package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/events"
	"busbooking/internal/metrics"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"

	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"
)

const (
	MaxSeatsPerBooking = 6
	MaxConnectingLegs  = 3
	pnrAlphabet        = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	pnrLength          = 10
	pnrAttempts        = 3
)

// NewPNR returns a 10 character booking reference without ambiguous characters.
// shortuuid encodes least significant digits first, so the leading base57 digits are
// the random ones; each is folded onto pnrAlphabet.
func NewPNR() string {
	raw := shortuuid.New()
	var b strings.Builder
	b.Grow(pnrLength)
	for i := 0; i < len(raw) && b.Len() < pnrLength; i++ {
		idx := strings.IndexByte(shortuuid.DefaultAlphabet, raw[i])
		if idx < 0 {
			continue
		}
		b.WriteByte(pnrAlphabet[idx%len(pnrAlphabet)])
	}
	return b.String()
}

type BookingService struct {
	Bookings  BookingStore
	Schedules ScheduleStore
	Buses     BusStore
	Layouts   LayoutStore
	Routes    RouteStore
	Payments  PaymentStore
	Events    EventPublisher
	Hold      time.Duration
	Location  *time.Location
	Now       func() time.Time
	NewPNR    func() string
}

// SegmentInput is one leg of a booking request.
type SegmentInput struct {
	ScheduleID     int64              `json:"scheduleId" binding:"required,gt=0"`
	SeatNumbers    []string           `json:"seatNumbers" binding:"required,min=1,dive,required"`
	Passengers     []models.Passenger `json:"passengers" binding:"required,min=1,dive"`
	BoardingStopID int64              `json:"boardingStopId"`
	DroppingStopID int64              `json:"droppingStopId"`
}

type ConnectingBookingInput struct {
	Segments []SegmentInput `json:"segments" binding:"required,min=2,dive"`
}

// preparedLeg is a validated, priced leg ready to persist.
type preparedLeg struct {
	segment  models.BookingSegment
	detail   models.ScheduleDetail
	departAt time.Time
	arriveAt time.Time
}

func (s BookingService) hold() time.Duration {
	if s.Hold <= 0 {
		return 10 * time.Minute
	}
	return s.Hold
}

func (s BookingService) pnr() string {
	if s.NewPNR != nil {
		return s.NewPNR()
	}
	return NewPNR()
}

func validateSeatRequest(in SegmentInput) ([]string, error) {
	if len(in.SeatNumbers) == 0 {
		return nil, domain.ValidationError{Field: "seatNumbers", Msg: "select at least one seat"}
	}
	if len(in.SeatNumbers) > MaxSeatsPerBooking {
		return nil, domain.ValidationError{Field: "seatNumbers", Msg: fmt.Sprintf("at most %d seats per booking", MaxSeatsPerBooking)}
	}
	if len(in.Passengers) != len(in.SeatNumbers) {
		return nil, domain.ValidationError{Field: "passengers", Msg: "one passenger is required per seat"}
	}
	if dups := utils.DuplicateSeats(in.SeatNumbers); len(dups) > 0 {
		return nil, domain.ValidationError{Field: "seatNumbers", Msg: "duplicate seats: " + strings.Join(dups, ", ")}
	}
	for i, p := range in.Passengers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, domain.ValidationError{Field: fmt.Sprintf("passengers[%d].name", i), Msg: "required"}
		}
		if p.Age < 1 || p.Age > 120 {
			return nil, domain.ValidationError{Field: fmt.Sprintf("passengers[%d].age", i), Msg: "must be between 1 and 120"}
		}
	}
	return lo.Map(in.SeatNumbers, func(n string, _ int) string { return utils.NormalizeSeat(n) }), nil
}

// stopSpan resolves boarding and dropping stops to route order numbers.
// Zero stop ids mean the full route.
func stopSpan(stops []models.RouteStop, boardingID, droppingID int64) (board, drop, first, last int, err error) {
	if len(stops) == 0 {
		if boardingID != 0 || droppingID != 0 {
			return 0, 0, 0, 0, domain.ValidationError{Field: "boardingStopId", Msg: "route has no stops configured"}
		}
		return 0, 0, 0, 0, nil
	}
	first, last = stops[0].OrderNumber, stops[len(stops)-1].OrderNumber
	board, drop = first, last
	if boardingID != 0 {
		rs, ok := lo.Find(stops, func(rs models.RouteStop) bool { return rs.StopID == boardingID })
		if !ok {
			return 0, 0, 0, 0, domain.ValidationError{Field: "boardingStopId", Msg: "stop is not on this route"}
		}
		board = rs.OrderNumber
	}
	if droppingID != 0 {
		rs, ok := lo.Find(stops, func(rs models.RouteStop) bool { return rs.StopID == droppingID })
		if !ok {
			return 0, 0, 0, 0, domain.ValidationError{Field: "droppingStopId", Msg: "stop is not on this route"}
		}
		drop = rs.OrderNumber
	}
	if board >= drop {
		return 0, 0, 0, 0, domain.ValidationError{Field: "droppingStopId", Msg: "dropping stop must come after boarding stop"}
	}
	return board, drop, first, last, nil
}

func (s BookingService) prepareLeg(ctx context.Context, in SegmentInput, order int, now time.Time) (preparedLeg, error) {
	seats, err := validateSeatRequest(in)
	if err != nil {
		return preparedLeg{}, err
	}
	detail, err := s.Schedules.GetByID(ctx, in.ScheduleID)
	if err != nil {
		return preparedLeg{}, err
	}
	if !detail.Status.Bookable() {
		return preparedLeg{}, domain.ValidationError{Field: "scheduleId", Msg: "schedule is " + string(detail.Status)}
	}
	departAt, err := domain.DepartureAt(detail.TravelDate, detail.DepartureTime, locOrLocal(s.Location))
	if err != nil {
		return preparedLeg{}, domain.Internal("invalid schedule time", err)
	}
	if !departAt.After(now) {
		return preparedLeg{}, domain.ValidationError{Field: "scheduleId", Msg: "schedule has already departed"}
	}
	duration, err := domain.JourneyDuration(detail.DepartureTime, detail.ArrivalTime, detail.ArrivalDayOffset)
	if err != nil {
		return preparedLeg{}, domain.Internal("invalid schedule time", err)
	}

	bus, err := s.Buses.GetByID(ctx, detail.BusID)
	if err != nil {
		return preparedLeg{}, err
	}
	layout, err := s.Layouts.Seats(ctx, bus.SeatLayoutTemplateID)
	if err != nil {
		return preparedLeg{}, domain.Internal("failed to load seat layout", err)
	}
	bySeat := lo.KeyBy(layout, func(d models.SeatLayoutDetail) string { return strings.ToUpper(d.SeatNumber) })

	stops, err := s.Routes.ListRouteStops(ctx, detail.RouteID, detail.ID)
	if err != nil {
		return preparedLeg{}, domain.Internal("failed to load route stops", err)
	}
	board, drop, first, last, err := stopSpan(stops, in.BoardingStopID, in.DroppingStopID)
	if err != nil {
		return preparedLeg{}, err
	}
	segFare := utils.SegmentFare(detail.BasePrice, board, drop, first, last)

	seg := models.BookingSegment{
		ScheduleID:     detail.ID,
		SegmentOrder:   order,
		SeatCount:      len(seats),
		BoardingStopID: in.BoardingStopID,
		DroppingStopID: in.DroppingStopID,
	}
	for i, n := range seats {
		ls, ok := bySeat[n]
		if !ok {
			return preparedLeg{}, domain.ValidationError{Field: "seatNumbers", Msg: "seat " + n + " does not exist on this bus"}
		}
		p := in.Passengers[i]
		seg.Amount += utils.SeatFare(segFare, ls.SeatType)
		seg.Seats = append(seg.Seats, models.BookedSeat{
			SeatNumber:      ls.SeatNumber,
			SeatType:        ls.SeatType,
			SeatPosition:    ls.SeatPosition,
			PassengerName:   utils.NormalizeSpace(p.Name),
			PassengerAge:    p.Age,
			PassengerGender: p.Gender,
		})
	}
	seg.Amount = domain.RoundMoney(seg.Amount)

	return preparedLeg{segment: seg, detail: detail, departAt: departAt, arriveAt: departAt.Add(duration)}, nil
}

func (s BookingService) persist(ctx context.Context, rc domain.RequestContext, customerID int64, legs []preparedLeg, kind models.BookingType, now time.Time) (models.Booking, error) {
	expiry := now.Add(s.hold())
	b := models.Booking{
		CustomerID:            customerID,
		TravelDate:            legs[0].departAt,
		Status:                models.BookingPending,
		BookingType:           kind,
		ReservationExpiryTime: &expiry,
		CreatedAt:             now,
	}
	for _, l := range legs {
		b.Segments = append(b.Segments, l.segment)
		b.TotalAmount += l.segment.Amount
	}
	b.TotalSeats = legs[0].segment.SeatCount
	b.TotalAmount = domain.RoundMoney(b.TotalAmount)

	var err error
	for attempt := 0; attempt < pnrAttempts; attempt++ {
		b.PNR = s.pnr()
		var created models.Booking
		created, err = s.Bookings.Create(ctx, b)
		if err == nil {
			metrics.BookingsCreated.WithLabelValues(string(kind)).Inc()
			utils.LogEvent(rc.RequestID, "booking", "create", fmt.Sprintf("booking_id=%d pnr=%s type=%s seats=%d", created.ID, created.PNR, kind, created.TotalSeats))
			return created, nil
		}
		if !errors.Is(err, repositories.ErrDuplicatePNR) {
			break
		}
	}
	return models.Booking{}, domain.Internal("failed to create booking", err)
}

// CreateBooking holds seats on one schedule until payment or expiry.
func (s BookingService) CreateBooking(ctx context.Context, rc domain.RequestContext, in SegmentInput) (models.Booking, error) {
	customerID, err := rc.RequireCustomer()
	if err != nil {
		return models.Booking{}, err
	}
	now := clock(s.Now).now()
	leg, err := s.prepareLeg(ctx, in, 1, now)
	if err != nil {
		return models.Booking{}, err
	}
	return s.persist(ctx, rc, customerID, []preparedLeg{leg}, models.BookingDirect, now)
}

// CreateConnectingBooking books every leg atomically under one PNR. Legs must be in
// travel order and each must board where the previous one drops.
func (s BookingService) CreateConnectingBooking(ctx context.Context, rc domain.RequestContext, in ConnectingBookingInput) (models.Booking, error) {
	customerID, err := rc.RequireCustomer()
	if err != nil {
		return models.Booking{}, err
	}
	if len(in.Segments) < 2 {
		return models.Booking{}, domain.ValidationError{Field: "segments", Msg: "a connecting booking needs at least two segments"}
	}
	if len(in.Segments) > MaxConnectingLegs {
		return models.Booking{}, domain.ValidationError{Field: "segments", Msg: fmt.Sprintf("at most %d segments", MaxConnectingLegs)}
	}
	if len(lo.UniqBy(in.Segments, func(sg SegmentInput) int64 { return sg.ScheduleID })) != len(in.Segments) {
		return models.Booking{}, domain.ValidationError{Field: "segments", Msg: "each segment must use a different schedule"}
	}

	now := clock(s.Now).now()
	legs := make([]preparedLeg, 0, len(in.Segments))
	for i, sg := range in.Segments {
		if len(sg.SeatNumbers) != len(in.Segments[0].SeatNumbers) {
			return models.Booking{}, domain.ValidationError{Field: fmt.Sprintf("segments[%d].seatNumbers", i), Msg: "every segment must carry the same number of passengers"}
		}
		leg, err := s.prepareLeg(ctx, sg, i+1, now)
		if err != nil {
			return models.Booking{}, err
		}
		if i > 0 {
			prev := legs[i-1]
			if sg.BoardingStopID == 0 || prev.segment.DroppingStopID == 0 || sg.BoardingStopID != prev.segment.DroppingStopID {
				return models.Booking{}, domain.ValidationError{Field: fmt.Sprintf("segments[%d].boardingStopId", i), Msg: "must equal the previous segment's dropping stop"}
			}
			if leg.departAt.Before(prev.arriveAt) {
				return models.Booking{}, domain.ValidationError{Field: fmt.Sprintf("segments[%d].scheduleId", i), Msg: "departs before the previous segment arrives"}
			}
		}
		legs = append(legs, leg)
	}
	return s.persist(ctx, rc, customerID, legs, models.BookingConnecting, now)
}

// GetBooking returns the booking when the caller owns it (admins see all).
func (s BookingService) GetBooking(ctx context.Context, rc domain.RequestContext, id int64) (models.BookingView, error) {
	v, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, err
	}
	if rc.HasRole(domain.RoleAdmin) {
		return v, nil
	}
	customerID, err := rc.RequireCustomer()
	if err != nil {
		return models.BookingView{}, err
	}
	if v.CustomerID != customerID {
		return models.BookingView{}, domain.NotFoundError{Resource: "booking"}
	}
	return v, nil
}

func (s BookingService) ListCustomerBookings(ctx context.Context, rc domain.RequestContext, page domain.Pagination) ([]models.Booking, error) {
	customerID, err := rc.RequireCustomer()
	if err != nil {
		return nil, err
	}
	return s.Bookings.ListByCustomer(ctx, customerID, page)
}

// ConfirmBooking records a captured payment and moves the booking Pending -> Confirmed.
func (s BookingService) ConfirmBooking(ctx context.Context, rc domain.RequestContext, p models.Payment) (models.BookingView, error) {
	now := clock(s.Now).now()
	if err := s.Payments.MarkPaid(ctx, p, now); err != nil {
		return models.BookingView{}, domain.Internal("failed to confirm booking", err)
	}
	v, err := s.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return models.BookingView{}, err
	}
	utils.LogEvent(rc.RequestID, "booking", "confirm", fmt.Sprintf("booking_id=%d pnr=%s", v.ID, v.PNR))
	publish(ctx, s.Events, rc.RequestID, "booking", events.TopicBookingConfirmed, bookingEvent(v))
	return v, nil
}

func bookingEvent(v models.BookingView) events.BookingEvent {
	return events.BookingEvent{
		BookingID:     v.ID,
		PNR:           v.PNR,
		CustomerName:  v.CustomerName,
		CustomerEmail: v.CustomerEmail,
		Route:         v.RouteSource + " - " + v.RouteDest,
		TravelDate:    v.TravelDate,
		TotalAmount:   v.TotalAmount,
	}
}
