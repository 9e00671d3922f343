package handlers

import (
	"net/http"
	"strings"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) CreateStop(c *gin.Context) {
	var in services.CreateStopInput
	if !BindJSONOrError(c, &in) {
		return
	}
	s, err := h.Routes.CreateStop(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// ListStops supports ?city=.
func (h *Handlers) ListStops(c *gin.Context) {
	list, err := h.Routes.ListStops(c.Request.Context(), strings.TrimSpace(c.Query("city")))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) CreateRoute(c *gin.Context) {
	var in services.CreateRouteInput
	if !BindJSONOrError(c, &in) {
		return
	}
	r, err := h.Routes.CreateRoute(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handlers) ListRoutes(c *gin.Context) {
	list, err := h.Routes.ListRoutes(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) AddRouteStop(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.RouteStopInput
	if !BindJSONOrError(c, &in) {
		return
	}
	rs, err := h.Routes.AddRouteStop(c.Request.Context(), rc(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rs)
}

// ListRouteStops returns the stops for a route; ?scheduleId= applies that schedule's overrides.
func (h *Handlers) ListRouteStops(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	scheduleID, ok := queryInt64(c, "scheduleId")
	if !ok {
		return
	}
	list, err := h.Routes.ListRouteStops(c.Request.Context(), id, scheduleID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
