package handlers

import (
	"net/http"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) CreateBooking(c *gin.Context) {
	var in services.SegmentInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.Bookings.CreateBooking(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handlers) CreateConnectingBooking(c *gin.Context) {
	var in services.ConnectingBookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.Bookings.CreateConnectingBooking(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handlers) MyBookings(c *gin.Context) {
	list, err := h.Bookings.ListCustomerBookings(c.Request.Context(), rc(c), pagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.GetBooking(c.Request.Context(), rc(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handlers) CancellationPreview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.Cancellation.PreviewCancellation(c.Request.Context(), rc(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelBooking accepts an optional {"reason": "..."} body.
func (h *Handlers) CancelBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.CancelInput
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &in) {
		return
	}
	res, err := h.Cancellation.CancelBooking(c.Request.Context(), rc(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) DownloadTicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.Tickets.Generate(c.Request.Context(), rc(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
