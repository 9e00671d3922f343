package handlers

import (
	"net/http"
	"strings"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) CreateSchedule(c *gin.Context) {
	var in services.CreateScheduleInput
	if !BindJSONOrError(c, &in) {
		return
	}
	s, err := h.Schedules.CreateSchedule(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// CreateBulkSchedule is mounted at /api/schedule/bulk and /api/vendor/schedules/bulk.
func (h *Handlers) CreateBulkSchedule(c *gin.Context) {
	var in services.BulkScheduleInput
	if !BindJSONOrError(c, &in) {
		return
	}
	res, err := h.Schedules.CreateBulkSchedule(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handlers) MySchedules(c *gin.Context) {
	list, err := h.Schedules.ListVendorSchedules(c.Request.Context(), rc(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetSchedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.Schedules.GetSchedule(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handlers) UpdateSchedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateScheduleInput
	if !BindJSONOrError(c, &in) {
		return
	}
	s, err := h.Schedules.UpdateSchedule(c.Request.Context(), rc(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handlers) DeleteSchedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Schedules.DeleteSchedule(c.Request.Context(), rc(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

// SearchSchedules expects ?source=&destination=&date=YYYY-MM-DD.
func (h *Handlers) SearchSchedules(c *gin.Context) {
	list, err := h.Schedules.SearchSchedules(c.Request.Context(),
		strings.TrimSpace(c.Query("source")),
		strings.TrimSpace(c.Query("destination")),
		strings.TrimSpace(c.Query("date")),
	)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) SeatMap(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	seats, err := h.Schedules.SeatMap(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}
