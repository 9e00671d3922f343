package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/metrics"
	"busbooking/internal/utils"

	"github.com/samber/lo"
)

// MaxBulkScheduleDays caps one bulk request.
const MaxBulkScheduleDays = 90

type ScheduleService struct {
	Schedules ScheduleStore
	Buses     BusStore
	Routes    RouteStore
	Layouts   LayoutStore
	Vendors   VendorStore
	Location  *time.Location
	Now       func() time.Time
}

type CreateScheduleInput struct {
	BusID            int64  `json:"busId" binding:"required,gt=0"`
	RouteID          int64  `json:"routeId" binding:"required,gt=0"`
	TravelDate       string `json:"travelDate" binding:"required"`
	DepartureTime    string `json:"departureTime" binding:"required,clock"`
	ArrivalTime      string `json:"arrivalTime" binding:"required,clock"`
	ArrivalDayOffset int    `json:"arrivalDayOffset" binding:"min=0,max=2"`
}

type BulkScheduleInput struct {
	BusID            int64    `json:"busId" binding:"required,gt=0"`
	RouteID          int64    `json:"routeId" binding:"required,gt=0"`
	StartDate        string   `json:"startDate" binding:"required"`
	EndDate          string   `json:"endDate" binding:"required"`
	DepartureTime    string   `json:"departureTime" binding:"required,clock"`
	ArrivalTime      string   `json:"arrivalTime" binding:"required,clock"`
	ArrivalDayOffset int      `json:"arrivalDayOffset" binding:"min=0,max=2"`
	OperatingDays    []string `json:"operatingDays"`
}

type BulkScheduleResult struct {
	Created      []models.BusSchedule `json:"created"`
	CreatedCount int                  `json:"createdCount"`
	SkippedDates []string             `json:"skippedDates"`
}

type UpdateScheduleInput struct {
	TravelDate       *string `json:"travelDate"`
	DepartureTime    *string `json:"departureTime" binding:"omitempty,clock"`
	ArrivalTime      *string `json:"arrivalTime" binding:"omitempty,clock"`
	ArrivalDayOffset *int    `json:"arrivalDayOffset" binding:"omitempty,min=0,max=2"`
	Status           *string `json:"status"`
}

func (s ScheduleService) today() time.Time {
	return domain.DateOnly(clock(s.Now).now(), locOrLocal(s.Location))
}

func (s ScheduleService) parseDate(field, raw string) (time.Time, error) {
	d, err := utils.ParseDate(raw, locOrLocal(s.Location))
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: field, Msg: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// approvedVendor returns the caller's vendor id when the vendor account is Approved.
func approvedVendor(ctx context.Context, vendors VendorStore, rc domain.RequestContext) (int64, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return 0, err
	}
	if vendors == nil {
		return vendorID, nil
	}
	v, err := vendors.GetByID(ctx, vendorID)
	if err != nil {
		return 0, err
	}
	if v.Status != models.VendorApproved {
		return 0, domain.ForbiddenError{Msg: "vendor account is " + strings.ToLower(string(v.Status))}
	}
	return vendorID, nil
}

// ownedActiveBus loads a bus and checks it belongs to vendorID and is Active.
func (s ScheduleService) ownedActiveBus(ctx context.Context, vendorID, busID int64) (models.Bus, error) {
	bus, err := s.Buses.GetByID(ctx, busID)
	if err != nil {
		return models.Bus{}, err
	}
	if bus.VendorID != vendorID {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	if bus.Status != models.BusActive {
		return models.Bus{}, domain.ValidationError{Field: "busId", Msg: "bus is not active"}
	}
	return bus, nil
}

func (s ScheduleService) CreateSchedule(ctx context.Context, rc domain.RequestContext, in CreateScheduleInput) (models.BusSchedule, error) {
	vendorID, err := approvedVendor(ctx, s.Vendors, rc)
	if err != nil {
		return models.BusSchedule{}, err
	}
	bus, err := s.ownedActiveBus(ctx, vendorID, in.BusID)
	if err != nil {
		return models.BusSchedule{}, err
	}
	date, err := s.parseDate("travelDate", in.TravelDate)
	if err != nil {
		return models.BusSchedule{}, err
	}
	if date.Before(s.today()) {
		return models.BusSchedule{}, domain.ValidationError{Field: "travelDate", Msg: "cannot schedule in the past"}
	}
	if _, err := domain.ValidateJourney(in.DepartureTime, in.ArrivalTime, in.ArrivalDayOffset); err != nil {
		return models.BusSchedule{}, err
	}
	if _, err := s.Routes.GetRoute(ctx, in.RouteID); err != nil {
		return models.BusSchedule{}, err
	}
	exists, err := s.Schedules.Exists(ctx, bus.ID, in.RouteID, date)
	if err != nil {
		return models.BusSchedule{}, domain.Internal("failed to check schedule", err)
	}
	if exists {
		return models.BusSchedule{}, domain.ConflictError{Resource: "schedule", Msg: "bus already scheduled on this route for " + utils.FormatDate(date)}
	}

	created, err := s.Schedules.Create(ctx, models.BusSchedule{
		BusID:            bus.ID,
		RouteID:          in.RouteID,
		TravelDate:       date,
		DepartureTime:    in.DepartureTime,
		ArrivalTime:      in.ArrivalTime,
		ArrivalDayOffset: in.ArrivalDayOffset,
		AvailableSeats:   bus.TotalSeats,
		Status:           models.ScheduleScheduled,
	})
	if err != nil {
		return models.BusSchedule{}, domain.Internal("failed to create schedule", err)
	}
	metrics.SchedulesCreated.Inc()
	utils.LogEvent(rc.RequestID, "schedule", "create", fmt.Sprintf("schedule_id=%d bus_id=%d date=%s", created.ID, bus.ID, utils.FormatDate(date)))
	return created, nil
}

// ParseOperatingDays accepts full or three-letter weekday names; empty means every day.
func ParseOperatingDays(names []string) (map[time.Weekday]bool, error) {
	days := map[time.Weekday]bool{}
	if len(names) == 0 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			days[d] = true
		}
		return days, nil
	}
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if key == full || key == full[:3] {
				days[d] = true
				found = true
				break
			}
		}
		if !found {
			return nil, domain.ValidationError{Field: "operatingDays", Msg: fmt.Sprintf("unknown day %q", n)}
		}
	}
	return days, nil
}

// CreateBulkSchedule creates one schedule per operating day in [start, end]. Days that
// already have a schedule are skipped; everything else commits or rolls back together.
func (s ScheduleService) CreateBulkSchedule(ctx context.Context, rc domain.RequestContext, in BulkScheduleInput) (BulkScheduleResult, error) {
	vendorID, err := approvedVendor(ctx, s.Vendors, rc)
	if err != nil {
		return BulkScheduleResult{}, err
	}
	bus, err := s.ownedActiveBus(ctx, vendorID, in.BusID)
	if err != nil {
		return BulkScheduleResult{}, err
	}
	start, err := s.parseDate("startDate", in.StartDate)
	if err != nil {
		return BulkScheduleResult{}, err
	}
	end, err := s.parseDate("endDate", in.EndDate)
	if err != nil {
		return BulkScheduleResult{}, err
	}
	if end.Before(start) {
		return BulkScheduleResult{}, domain.ValidationError{Field: "endDate", Msg: "must not be before startDate"}
	}
	if start.Before(s.today()) {
		return BulkScheduleResult{}, domain.ValidationError{Field: "startDate", Msg: "cannot schedule in the past"}
	}
	all := utils.DaysBetween(start, end)
	if len(all) > MaxBulkScheduleDays {
		return BulkScheduleResult{}, domain.ValidationError{Field: "endDate", Msg: fmt.Sprintf("range exceeds %d days", MaxBulkScheduleDays)}
	}
	if _, err := domain.ValidateJourney(in.DepartureTime, in.ArrivalTime, in.ArrivalDayOffset); err != nil {
		return BulkScheduleResult{}, err
	}
	if _, err := s.Routes.GetRoute(ctx, in.RouteID); err != nil {
		return BulkScheduleResult{}, err
	}
	operating, err := ParseOperatingDays(in.OperatingDays)
	if err != nil {
		return BulkScheduleResult{}, err
	}

	dates := lo.Filter(all, func(d time.Time, _ int) bool { return operating[d.Weekday()] })
	if len(dates) == 0 {
		return BulkScheduleResult{}, domain.ValidationError{Field: "operatingDays", Msg: "no operating day falls inside the date range"}
	}

	created, skipped, err := s.Schedules.CreateBatch(ctx, models.BusSchedule{
		BusID:            bus.ID,
		RouteID:          in.RouteID,
		DepartureTime:    in.DepartureTime,
		ArrivalTime:      in.ArrivalTime,
		ArrivalDayOffset: in.ArrivalDayOffset,
		AvailableSeats:   bus.TotalSeats,
		Status:           models.ScheduleScheduled,
	}, dates)
	if err != nil {
		utils.LogError(rc.RequestID, "schedule", "bulk_create", err)
		return BulkScheduleResult{}, domain.Internal("bulk schedule creation failed, nothing was created", err)
	}
	if len(created) == 0 {
		return BulkScheduleResult{}, domain.ConflictError{Resource: "schedule", Msg: "every operating day in the range is already scheduled"}
	}

	metrics.SchedulesCreated.Add(float64(len(created)))
	utils.LogEvent(rc.RequestID, "schedule", "bulk_create", fmt.Sprintf("bus_id=%d created=%d skipped=%d", bus.ID, len(created), len(skipped)))
	return BulkScheduleResult{
		Created:      created,
		CreatedCount: len(created),
		SkippedDates: lo.Map(skipped, func(d time.Time, _ int) string { return utils.FormatDate(d) }),
	}, nil
}

func (s ScheduleService) GetSchedule(ctx context.Context, id int64) (models.ScheduleDetail, error) {
	return s.Schedules.GetByID(ctx, id)
}

func (s ScheduleService) ListVendorSchedules(ctx context.Context, rc domain.RequestContext) ([]models.ScheduleDetail, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return nil, err
	}
	return s.Schedules.ListByVendor(ctx, vendorID, s.today())
}

func (s ScheduleService) ownedSchedule(ctx context.Context, rc domain.RequestContext, id int64) (models.ScheduleDetail, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return models.ScheduleDetail{}, err
	}
	d, err := s.Schedules.GetByID(ctx, id)
	if err != nil {
		return models.ScheduleDetail{}, err
	}
	if d.VendorID != vendorID {
		return models.ScheduleDetail{}, domain.NotFoundError{Resource: "schedule"}
	}
	return d, nil
}

func (s ScheduleService) UpdateSchedule(ctx context.Context, rc domain.RequestContext, id int64, in UpdateScheduleInput) (models.BusSchedule, error) {
	d, err := s.ownedSchedule(ctx, rc, id)
	if err != nil {
		return models.BusSchedule{}, err
	}
	updated := d.BusSchedule
	dateChanged := false
	if in.TravelDate != nil {
		date, err := s.parseDate("travelDate", *in.TravelDate)
		if err != nil {
			return models.BusSchedule{}, err
		}
		if date.Before(s.today()) {
			return models.BusSchedule{}, domain.ValidationError{Field: "travelDate", Msg: "cannot schedule in the past"}
		}
		dateChanged = utils.FormatDate(date) != utils.FormatDate(d.TravelDate)
		updated.TravelDate = date
	}
	if in.DepartureTime != nil {
		updated.DepartureTime = *in.DepartureTime
	}
	if in.ArrivalTime != nil {
		updated.ArrivalTime = *in.ArrivalTime
	}
	if in.ArrivalDayOffset != nil {
		updated.ArrivalDayOffset = *in.ArrivalDayOffset
	}
	if in.Status != nil {
		st := models.ScheduleStatus(*in.Status)
		if !st.Valid() {
			return models.BusSchedule{}, domain.ValidationError{Field: "status", Msg: "unknown status " + *in.Status}
		}
		updated.Status = st
	}
	if _, err := domain.ValidateJourney(updated.DepartureTime, updated.ArrivalTime, updated.ArrivalDayOffset); err != nil {
		return models.BusSchedule{}, err
	}
	if dateChanged {
		n, err := s.Schedules.CountActiveBookings(ctx, id)
		if err != nil {
			return models.BusSchedule{}, domain.Internal("failed to check bookings", err)
		}
		if n > 0 {
			return models.BusSchedule{}, domain.ConflictError{Resource: "schedule", Msg: "cannot move a schedule with active bookings"}
		}
	}
	if err := s.Schedules.Update(ctx, updated); err != nil {
		return models.BusSchedule{}, domain.Internal("failed to update schedule", err)
	}
	utils.LogEvent(rc.RequestID, "schedule", "update", fmt.Sprintf("schedule_id=%d", id))
	return updated, nil
}

func (s ScheduleService) DeleteSchedule(ctx context.Context, rc domain.RequestContext, id int64) error {
	if _, err := s.ownedSchedule(ctx, rc, id); err != nil {
		return err
	}
	if err := s.Schedules.Delete(ctx, id); err != nil {
		return domain.Internal("failed to delete schedule", err)
	}
	utils.LogEvent(rc.RequestID, "schedule", "delete", fmt.Sprintf("schedule_id=%d", id))
	return nil
}

func (s ScheduleService) SearchSchedules(ctx context.Context, source, destination, date string) ([]models.ScheduleDetail, error) {
	source, destination = utils.NormalizeSpace(source), utils.NormalizeSpace(destination)
	if source == "" || destination == "" {
		return nil, domain.ValidationError{Field: "source", Msg: "source and destination are required"}
	}
	if strings.EqualFold(source, destination) {
		return nil, domain.ValidationError{Field: "destination", Msg: "must differ from source"}
	}
	d, err := s.parseDate("date", date)
	if err != nil {
		return nil, err
	}
	if d.Before(s.today()) {
		return []models.ScheduleDetail{}, nil
	}
	return s.Schedules.Search(ctx, source, destination, d)
}

// SeatMap returns the bus layout with the seats currently held on the schedule marked booked.
func (s ScheduleService) SeatMap(ctx context.Context, scheduleID int64) ([]models.SeatAvailability, error) {
	d, err := s.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	bus, err := s.Buses.GetByID(ctx, d.BusID)
	if err != nil {
		return nil, err
	}
	seats, err := s.Layouts.Seats(ctx, bus.SeatLayoutTemplateID)
	if err != nil {
		return nil, domain.Internal("failed to load layout", err)
	}
	held, err := s.Schedules.HeldSeats(ctx, scheduleID)
	if err != nil {
		return nil, domain.Internal("failed to load booked seats", err)
	}
	taken := lo.Associate(held, func(n string) (string, bool) { return n, true })

	return lo.Map(seats, func(st models.SeatLayoutDetail, _ int) models.SeatAvailability {
		return models.SeatAvailability{
			SeatNumber:   st.SeatNumber,
			SeatType:     st.SeatType,
			SeatPosition: st.SeatPosition,
			Deck:         st.Deck,
			RowNo:        st.RowNo,
			ColNo:        st.ColNo,
			Booked:       taken[st.SeatNumber],
		}
	}), nil
}
