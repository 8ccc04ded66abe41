package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
)

// paymentHandler exposes reversal operations on payments.
type paymentHandler struct {
	reversalService portssvc.ReversalSvcFacade
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, reversalService portssvc.ReversalSvcFacade) {
	h := &paymentHandler{reversalService: reversalService}

	payments := rg.Group("/payments")
	{
		payments.POST("/:id/cancel", h.cancelPayment)
	}
}

// cancelPayment godoc
// @Summary Cancel a payment
// @Description Voids a payment recorded in error: rolls back its allocations and appends an offsetting debit into the original entry's occupancy period.
// @Tags payments
// @Param id path string true "Payment ID"
// @Success 204
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Payment already canceled"
// @Security BearerAuth
// @Router /payments/{id}/cancel [post]
func (h *paymentHandler) cancelPayment(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	if err := h.reversalService.CancelPayment(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
