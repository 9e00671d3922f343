package services

import (
	"context"
	"fmt"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/samber/lo"
)

// FleetService manages seat layout templates (admin) and vendor buses.
type FleetService struct {
	Buses   BusStore
	Layouts LayoutStore
	Vendors VendorStore
}

type LayoutInput struct {
	Name        string                    `json:"name" binding:"required,max=100"`
	Rows        int                       `json:"rows" binding:"required,min=1,max=30"`
	Columns     int                       `json:"columns" binding:"required,min=1,max=10"`
	Description string                    `json:"description" binding:"max=255"`
	Seats       []models.SeatLayoutDetail `json:"seats" binding:"required,min=1,dive"`
}

type CreateBusInput struct {
	BusNumber            string `json:"busNumber" binding:"required,max=20"`
	BusType              string `json:"busType" binding:"required,max=50"`
	SeatLayoutTemplateID int64  `json:"seatLayoutTemplateId" binding:"required,gt=0"`
}

type UpdateBusInput struct {
	BusType string           `json:"busType" binding:"omitempty,max=50"`
	Status  models.BusStatus `json:"status" binding:"omitempty,oneof=Active Inactive Maintenance"`
}

// buildLayout validates seats against the grid and normalizes them.
func buildLayout(in LayoutInput) (models.SeatLayoutTemplate, error) {
	t := models.SeatLayoutTemplate{
		Name:        utils.NormalizeSpace(in.Name),
		Rows:        in.Rows,
		Columns:     in.Columns,
		Description: strings.TrimSpace(in.Description),
		TotalSeats:  len(in.Seats),
	}
	if t.Name == "" {
		return t, domain.ValidationError{Field: "name", Msg: "required"}
	}
	numbers := lo.Map(in.Seats, func(s models.SeatLayoutDetail, _ int) string { return s.SeatNumber })
	if dups := utils.DuplicateSeats(numbers); len(dups) > 0 {
		return t, domain.ValidationError{Field: "seats", Msg: "duplicate seat numbers: " + strings.Join(dups, ", ")}
	}
	cells := map[string]bool{}
	for i, s := range in.Seats {
		if s.RowNo < 1 || s.RowNo > in.Rows || s.ColNo < 1 || s.ColNo > in.Columns {
			return t, domain.ValidationError{Field: fmt.Sprintf("seats[%d]", i), Msg: "position outside the layout grid"}
		}
		deck := s.Deck
		if deck == "" {
			deck = "Lower"
		}
		cell := fmt.Sprintf("%s/%d/%d", deck, s.RowNo, s.ColNo)
		if cells[cell] {
			return t, domain.ValidationError{Field: fmt.Sprintf("seats[%d]", i), Msg: "two seats share one position"}
		}
		cells[cell] = true
		s.SeatNumber = utils.NormalizeSeat(s.SeatNumber)
		s.Deck = deck
		t.Seats = append(t.Seats, s)
	}
	return t, nil
}

func (s FleetService) CreateLayout(ctx context.Context, rc domain.RequestContext, in LayoutInput) (models.SeatLayoutTemplate, error) {
	if err := rc.RequireAdmin(); err != nil {
		return models.SeatLayoutTemplate{}, err
	}
	t, err := buildLayout(in)
	if err != nil {
		return models.SeatLayoutTemplate{}, err
	}
	created, err := s.Layouts.Create(ctx, t)
	if err != nil {
		return models.SeatLayoutTemplate{}, domain.Internal("failed to create seat layout", err)
	}
	utils.LogEvent(rc.RequestID, "layout", "create", fmt.Sprintf("template_id=%d seats=%d", created.ID, created.TotalSeats))
	return created, nil
}

// UpdateLayout replaces the template and all of its seats.
func (s FleetService) UpdateLayout(ctx context.Context, rc domain.RequestContext, id int64, in LayoutInput) (models.SeatLayoutTemplate, error) {
	if err := rc.RequireAdmin(); err != nil {
		return models.SeatLayoutTemplate{}, err
	}
	if _, err := s.Layouts.GetByID(ctx, id); err != nil {
		return models.SeatLayoutTemplate{}, err
	}
	t, err := buildLayout(in)
	if err != nil {
		return models.SeatLayoutTemplate{}, err
	}
	t.ID = id
	if err := s.Layouts.Update(ctx, t); err != nil {
		return models.SeatLayoutTemplate{}, domain.Internal("failed to update seat layout", err)
	}
	utils.LogEvent(rc.RequestID, "layout", "update", fmt.Sprintf("template_id=%d seats=%d", id, t.TotalSeats))
	return s.Layouts.GetByID(ctx, id)
}

func (s FleetService) DeleteLayout(ctx context.Context, rc domain.RequestContext, id int64) error {
	if err := rc.RequireAdmin(); err != nil {
		return err
	}
	if err := s.Layouts.Delete(ctx, id); err != nil {
		return domain.Internal("failed to delete seat layout", err)
	}
	utils.LogEvent(rc.RequestID, "layout", "delete", fmt.Sprintf("template_id=%d", id))
	return nil
}

// ListLayouts is open to vendors too so they can pick one for a bus.
func (s FleetService) ListLayouts(ctx context.Context, rc domain.RequestContext) ([]models.SeatLayoutTemplate, error) {
	if !rc.HasRole(domain.RoleAdmin) && !rc.HasRole(domain.RoleVendor) {
		return nil, domain.ForbiddenError{Msg: "admin or vendor role required"}
	}
	return s.Layouts.List(ctx)
}

func (s FleetService) GetLayout(ctx context.Context, rc domain.RequestContext, id int64) (models.SeatLayoutTemplate, error) {
	if !rc.HasRole(domain.RoleAdmin) && !rc.HasRole(domain.RoleVendor) {
		return models.SeatLayoutTemplate{}, domain.ForbiddenError{Msg: "admin or vendor role required"}
	}
	return s.Layouts.GetByID(ctx, id)
}

// CreateBus registers a bus for an approved vendor; capacity comes from the layout.
func (s FleetService) CreateBus(ctx context.Context, rc domain.RequestContext, in CreateBusInput) (models.Bus, error) {
	vendorID, err := approvedVendor(ctx, s.Vendors, rc)
	if err != nil {
		return models.Bus{}, err
	}
	layout, err := s.Layouts.GetByID(ctx, in.SeatLayoutTemplateID)
	if domain.IsNotFound(err) {
		return models.Bus{}, domain.ValidationError{Field: "seatLayoutTemplateId", Msg: "seat layout does not exist"}
	}
	if err != nil {
		return models.Bus{}, err
	}
	b, err := s.Buses.Create(ctx, models.Bus{
		VendorID:             vendorID,
		BusNumber:            strings.ToUpper(utils.NormalizeSpace(in.BusNumber)),
		BusType:              utils.NormalizeSpace(in.BusType),
		TotalSeats:           layout.TotalSeats,
		SeatLayoutTemplateID: layout.ID,
		Status:               models.BusActive,
	})
	if err != nil {
		return models.Bus{}, domain.Internal("failed to create bus", err)
	}
	utils.LogEvent(rc.RequestID, "bus", "create", fmt.Sprintf("bus_id=%d vendor_id=%d seats=%d", b.ID, vendorID, b.TotalSeats))
	return b, nil
}

func (s FleetService) ListBuses(ctx context.Context, rc domain.RequestContext) ([]models.Bus, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return nil, err
	}
	return s.Buses.ListByVendor(ctx, vendorID)
}

func (s FleetService) UpdateBus(ctx context.Context, rc domain.RequestContext, id int64, in UpdateBusInput) (models.Bus, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return models.Bus{}, err
	}
	b, err := s.Buses.GetByID(ctx, id)
	if err != nil {
		return models.Bus{}, err
	}
	if b.VendorID != vendorID {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	if t := utils.NormalizeSpace(in.BusType); t != "" {
		b.BusType = t
	}
	if in.Status != "" {
		b.Status = in.Status
	}
	if err := s.Buses.Update(ctx, b); err != nil {
		return models.Bus{}, domain.Internal("failed to update bus", err)
	}
	utils.LogEvent(rc.RequestID, "bus", "update", fmt.Sprintf("bus_id=%d status=%s", b.ID, b.Status))
	return b, nil
}
