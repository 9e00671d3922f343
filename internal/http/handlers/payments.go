package handlers

import (
	"net/http"

	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) CreatePaymentOrder(c *gin.Context) {
	var in services.CreateOrderInput
	if !BindJSONOrError(c, &in) {
		return
	}
	order, err := h.Payments.CreateOrder(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handlers) VerifyPayment(c *gin.Context) {
	var in services.VerifyPaymentInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.Payments.VerifyPayment(c.Request.Context(), rc(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment verified", "booking": b})
}
