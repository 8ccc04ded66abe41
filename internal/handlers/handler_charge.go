package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
)

// chargeHandler exposes the reversal operations on expense charges.
type chargeHandler struct {
	reversalService portssvc.ReversalSvcFacade
}

// registerChargeRoutes registers routes related to expense charges.
func registerChargeRoutes(rg *gin.RouterGroup, reversalService portssvc.ReversalSvcFacade) {
	h := &chargeHandler{reversalService: reversalService}

	charges := rg.Group("/charges")
	{
		charges.POST("/:id/cancel", h.cancelCharge)
		charges.POST("/:id/waive", h.waiveCharge)
	}
}

// cancelCharge godoc
// @Summary Cancel an expense charge
// @Description Voids a charge by appending an offsetting credit into the original entry's occupancy period. The charge row is kept with a canceled flag.
// @Tags charges
// @Param id path string true "Apartment expense ID"
// @Success 204
// @Failure 404 {object} map[string]string "Charge not found"
// @Failure 409 {object} map[string]string "Charge already canceled"
// @Security BearerAuth
// @Router /charges/{id}/cancel [post]
func (h *chargeHandler) cancelCharge(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	if err := h.reversalService.CancelExpenseCharge(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// waiveCharge godoc
// @Summary Waive the unpaid remainder of an expense charge
// @Tags charges
// @Param id path string true "Apartment expense ID"
// @Success 204
// @Failure 404 {object} map[string]string "Charge not found"
// @Failure 409 {object} map[string]string "Nothing outstanding to waive"
// @Security BearerAuth
// @Router /charges/{id}/waive [post]
func (h *chargeHandler) waiveCharge(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	if err := h.reversalService.WaiveExpenseCharge(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
