package handlers

import (
	"net/http"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if !BindJSONOrError(c, &in) {
		return
	}
	res, err := h.Auth.RegisterCustomer(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handlers) RegisterVendor(c *gin.Context) {
	var in services.VendorRegisterInput
	if !BindJSONOrError(c, &in) {
		return
	}
	res, err := h.Auth.RegisterVendor(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handlers) Login(c *gin.Context) {
	var in services.LoginInput
	if !BindJSONOrError(c, &in) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
