package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
)

// opsHandler exposes the periodic charging runs. These endpoints exist for
// schedulers and manual administration; both runs are idempotent per
// (apartment, month) or (parent, month).
type opsHandler struct {
	expenseService      portssvc.ExpenseSvcFacade
	subscriptionService portssvc.SubscriptionSvcFacade
}

// registerOpsRoutes registers the operational run routes.
func registerOpsRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade, subscriptionService portssvc.SubscriptionSvcFacade) {
	h := &opsHandler{expenseService: expenseService, subscriptionService: subscriptionService}

	ops := rg.Group("/ops")
	{
		ops.POST("/subscriptions/run", h.runSubscriptions)
		ops.POST("/recurring-expenses/run", h.runRecurringExpenses)
	}
}

// runSubscriptions godoc
// @Summary Charge monthly subscriptions
// @Description Debits every occupied regular apartment its subscription for the month containing asOf (default: now). Safe to call repeatedly.
// @Tags ops
// @Produce json
// @Param asOf query string false "Charge month anchor (RFC 3339 date)"
// @Success 200 {object} map[string]int "Number of apartments charged"
// @Security BearerAuth
// @Router /ops/subscriptions/run [post]
func (h *opsHandler) runSubscriptions(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	charged, err := h.subscriptionService.ChargeSubscriptions(c.Request.Context(), asOf, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charged": charged})
}

// runRecurringExpenses godoc
// @Summary Generate recurring expense children
// @Description Materializes and splits one child expense per elapsed month for every recurring parent up to asOf (default: now). Safe to call repeatedly.
// @Tags ops
// @Produce json
// @Param asOf query string false "Generation horizon (RFC 3339 date)"
// @Success 200 {object} map[string]int "Number of child expenses generated"
// @Security BearerAuth
// @Router /ops/recurring-expenses/run [post]
func (h *opsHandler) runRecurringExpenses(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	generated, err := h.expenseService.GenerateRecurringExpenses(c.Request.Context(), asOf, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": generated})
}

func parseAsOf(c *gin.Context) (time.Time, bool) {
	asOfStr := c.Query("asOf")
	if asOfStr == "" {
		return time.Now().UTC(), true
	}
	asOf, err := time.Parse(time.RFC3339, asOfStr)
	if err != nil {
		asOf, err = time.Parse("2006-01-02", asOfStr)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf parameter, expected RFC 3339 timestamp or YYYY-MM-DD date"})
		return time.Time{}, false
	}
	return asOf.UTC(), true
}
