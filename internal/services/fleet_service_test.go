package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layoutInput() LayoutInput {
	return LayoutInput{
		Name: "2+1 Sleeper", Rows: 2, Columns: 2,
		Seats: []models.SeatLayoutDetail{
			{SeatNumber: "l1", SeatType: models.SeatTypeSleeper, SeatPosition: "Window", RowNo: 1, ColNo: 1},
			{SeatNumber: "L2", SeatType: models.SeatTypeSleeper, SeatPosition: "Aisle", RowNo: 1, ColNo: 2},
			{SeatNumber: "L3", SeatType: models.SeatTypeSleeper, SeatPosition: "Window", RowNo: 2, ColNo: 1},
		},
	}
}

func TestCreateLayoutNormalizesSeats(t *testing.T) {
	w := newWorld()
	svc := FleetService{Buses: w.buses, Layouts: w.layouts, Vendors: w.vendors}
	tpl, err := svc.CreateLayout(context.Background(), adminRC, layoutInput())
	require.NoError(t, err)
	assert.Equal(t, 3, tpl.TotalSeats)
	assert.Equal(t, "L1", tpl.Seats[0].SeatNumber)
	assert.Equal(t, "Lower", tpl.Seats[0].Deck)

	_, err = svc.CreateLayout(context.Background(), vendorRC, layoutInput())
	assert.True(t, domain.IsForbidden(err))
}

func TestCreateLayoutRejectsBadGrid(t *testing.T) {
	w := newWorld()
	svc := FleetService{Layouts: w.layouts}

	dup := layoutInput()
	dup.Seats[1].SeatNumber = "L1"
	_, err := svc.CreateLayout(context.Background(), adminRC, dup)
	assert.True(t, domain.IsValidation(err))

	outside := layoutInput()
	outside.Seats[2].RowNo = 3
	_, err = svc.CreateLayout(context.Background(), adminRC, outside)
	assert.True(t, domain.IsValidation(err))

	overlap := layoutInput()
	overlap.Seats[2].RowNo, overlap.Seats[2].ColNo = 1, 1
	_, err = svc.CreateLayout(context.Background(), adminRC, overlap)
	assert.True(t, domain.IsValidation(err))
}

func TestCreateBusCopiesLayoutCapacity(t *testing.T) {
	w := newWorld()
	svc := FleetService{Buses: w.buses, Layouts: w.layouts, Vendors: w.vendors}
	b, err := svc.CreateBus(context.Background(), vendorRC, CreateBusInput{BusNumber: "ka 05 mn 4321", BusType: "AC Seater", SeatLayoutTemplateID: 1})
	require.NoError(t, err)
	assert.Equal(t, 8, b.TotalSeats)
	assert.Equal(t, "KA 05 MN 4321", b.BusNumber)
	assert.Equal(t, models.BusActive, b.Status)

	_, err = svc.CreateBus(context.Background(), vendorRC, CreateBusInput{BusNumber: "X", BusType: "Y", SeatLayoutTemplateID: 42})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateBusOwnership(t *testing.T) {
	w := newWorld()
	svc := FleetService{Buses: w.buses, Layouts: w.layouts, Vendors: w.vendors}
	b, err := svc.UpdateBus(context.Background(), vendorRC, testBusID, UpdateBusInput{Status: models.BusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, models.BusMaintenance, b.Status)

	other := vendorRC
	other.VendorID = 99
	_, err = svc.UpdateBus(context.Background(), other, testBusID, UpdateBusInput{Status: models.BusActive})
	assert.True(t, domain.IsNotFound(err))
}

func TestVendorApprovalFlow(t *testing.T) {
	w := newWorld()
	w.vendors.vendors[8] = models.Vendor{ID: 8, UserID: 9, CompanyName: "New Co", Status: models.VendorPending}
	svc := VendorService{Vendors: w.vendors, Documents: &fakeDocuments{}, Now: fixedNow}

	pending, err := svc.List(context.Background(), adminRC, "Pending", domain.Pagination{})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	v, err := svc.Approve(context.Background(), adminRC, 8)
	require.NoError(t, err)
	assert.Equal(t, models.VendorApproved, v.Status)

	v, err = svc.Reject(context.Background(), adminRC, 8, RejectVendorInput{Reason: " expired permit "})
	require.NoError(t, err)
	assert.Equal(t, "expired permit", v.RejectionReason)

	_, err = svc.Approve(context.Background(), vendorRC, 8)
	assert.True(t, domain.IsForbidden(err))
	_, err = svc.List(context.Background(), adminRC, "Sleeping", domain.Pagination{})
	assert.True(t, domain.IsValidation(err))
}

func TestVendorDocumentUpload(t *testing.T) {
	w := newWorld()
	docs := &fakeDocuments{}
	svc := VendorService{Vendors: w.vendors, Documents: docs, Now: fixedNow}

	body := []byte("%PDF-1.4 permit")
	v, err := svc.UploadDocument(context.Background(), vendorRC, bytes.NewReader(body), int64(len(body)), "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v.DocumentKey, "vendors/7/"))
	assert.True(t, strings.HasSuffix(v.DocumentKey, ".pdf"))
	require.Len(t, docs.keys, 1)

	url, err := svc.DocumentURL(context.Background(), adminRC, testVendorID)
	require.NoError(t, err)
	assert.Contains(t, url, v.DocumentKey)

	_, err = svc.UploadDocument(context.Background(), vendorRC, bytes.NewReader(body), int64(len(body)), "text/plain")
	assert.True(t, domain.IsValidation(err))
}

func TestAddRouteStopRejectsDuplicates(t *testing.T) {
	w := newWorld()
	svc := RouteService{Routes: w.routes, Schedules: w.schedules}

	_, err := svc.AddRouteStop(context.Background(), adminRC, testRouteID, RouteStopInput{StopID: 12, OrderNumber: 9})
	assert.True(t, domain.IsConflict(err))
	_, err = svc.AddRouteStop(context.Background(), adminRC, testRouteID, RouteStopInput{StopID: 15, OrderNumber: 2})
	assert.True(t, domain.IsConflict(err))

	rs, err := svc.AddRouteStop(context.Background(), adminRC, testRouteID, RouteStopInput{StopID: 15, OrderNumber: 4, ArrivalTime: "03:10:00"})
	require.NoError(t, err)
	assert.Equal(t, "03:10", rs.ArrivalTime)

	_, err = svc.AddRouteStop(context.Background(), vendorRC, testRouteID, RouteStopInput{StopID: 16, OrderNumber: 6})
	assert.True(t, domain.IsForbidden(err))
}

func TestCreateRouteRejectsLoop(t *testing.T) {
	w := newWorld()
	svc := RouteService{Routes: w.routes}
	_, err := svc.CreateRoute(context.Background(), adminRC, CreateRouteInput{Source: "Pune", Destination: "pune", DistanceKm: 10, EstimatedDurationMinutes: 60, BasePrice: 100})
	assert.True(t, domain.IsValidation(err))

	r, err := svc.CreateRoute(context.Background(), adminRC, CreateRouteInput{Source: "Pune", Destination: "Mumbai", DistanceKm: 150, EstimatedDurationMinutes: 180, BasePrice: 499.999})
	require.NoError(t, err)
	assert.InDelta(t, 500.0, r.BasePrice, 0.001)
}
