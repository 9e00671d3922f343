package handlers

import (
	"net/http"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) CreateSeatLayout(c *gin.Context) {
	var in services.LayoutInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := h.Fleet.CreateLayout(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handlers) ListSeatLayouts(c *gin.Context) {
	list, err := h.Fleet.ListLayouts(c.Request.Context(), rc(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetSeatLayout(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := h.Fleet.GetLayout(c.Request.Context(), rc(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handlers) UpdateSeatLayout(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.LayoutInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := h.Fleet.UpdateLayout(c.Request.Context(), rc(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handlers) DeleteSeatLayout(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Fleet.DeleteLayout(c.Request.Context(), rc(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seat layout deleted"})
}

func (h *Handlers) CreateBus(c *gin.Context) {
	var in services.CreateBusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.Fleet.CreateBus(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handlers) ListBuses(c *gin.Context) {
	list, err := h.Fleet.ListBuses(c.Request.Context(), rc(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) UpdateBus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateBusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.Fleet.UpdateBus(c.Request.Context(), rc(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
