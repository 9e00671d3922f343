package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/yeqown/go-qrcode"
)

// TicketService renders e-tickets for confirmed bookings.
type TicketService struct {
	Bookings BookingStore
	Location *time.Location
}

// Generate returns the PDF bytes and a download filename.
func (s TicketService) Generate(ctx context.Context, rc domain.RequestContext, bookingID int64) ([]byte, string, error) {
	v, err := ownedBooking(ctx, s.Bookings, rc, bookingID)
	if err != nil {
		return nil, "", err
	}
	if v.Status != models.BookingConfirmed {
		return nil, "", domain.ValidationError{Field: "booking", Msg: "ticket is available for confirmed bookings only"}
	}
	pdf, err := buildTicketPDF(v, locOrLocal(s.Location))
	if err != nil {
		return nil, "", domain.Internal("failed to render ticket", err)
	}
	utils.LogEvent(rc.RequestID, "ticket", "generate", fmt.Sprintf("booking_id=%d pnr=%s", v.ID, v.PNR))
	return pdf, fmt.Sprintf("ETICKET_%s.pdf", v.PNR), nil
}

func qrJPEG(text string) ([]byte, error) {
	qrc, err := qrcode.New(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildTicketPDF(v models.BookingView, loc *time.Location) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+v.PNR, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	qr, err := qrJPEG(v.PNR)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	pdf.RegisterImageOptionsReader("pnr-qr", gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(qr))
	pdf.ImageOptions("pnr-qr", 160, 10, 35, 35, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("PNR            : %s", v.PNR),
		fmt.Sprintf("Passenger      : %s", safe(v.CustomerName, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(v.RouteSource, "-"), safe(v.RouteDest, "-")),
		fmt.Sprintf("Departure      : %s", utils.FormatDateTime(v.TravelDate, loc)),
		fmt.Sprintf("Bus            : %s", safe(v.BusNumber, "-")),
		fmt.Sprintf("Booking type   : %s", v.BookingType),
		fmt.Sprintf("Total paid     : %s", utils.FormatRupees(v.TotalAmount)),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	for _, sg := range v.Segments {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, fmt.Sprintf("Segment %d  (schedule #%d)  %s", sg.SegmentOrder, sg.ScheduleID, utils.FormatRupees(sg.Amount)))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, st := range sg.Seats {
			pdf.Cell(0, 6, fmt.Sprintf("Seat %-4s %-8s %-7s %s, %d, %s",
				st.SeatNumber, st.SeatType, st.SeatPosition, st.PassengerName, st.PassengerAge, st.PassengerGender))
			pdf.Ln(6)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please carry a valid photo ID and show this ticket while boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
