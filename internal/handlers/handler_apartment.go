package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/dto"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
)

// apartmentHandler handles HTTP requests for apartments and their
// sub-resources: occupancy, charges, payments and the ledger statement.
type apartmentHandler struct {
	apartmentService portssvc.ApartmentSvcFacade
	occupancyService portssvc.OccupancySvcFacade
	paymentService   portssvc.PaymentSvcFacade
	reversalService  portssvc.ReversalSvcFacade
	ledgerService    portssvc.LedgerSvcFacade
	expenseService   portssvc.ExpenseSvcFacade
}

// RegisterApartmentRoutes registers routes related to apartments.
func RegisterApartmentRoutes(
	rg *gin.RouterGroup,
	apartmentService portssvc.ApartmentSvcFacade,
	occupancyService portssvc.OccupancySvcFacade,
	paymentService portssvc.PaymentSvcFacade,
	reversalService portssvc.ReversalSvcFacade,
	ledgerService portssvc.LedgerSvcFacade,
	expenseService portssvc.ExpenseSvcFacade,
) {
	h := &apartmentHandler{
		apartmentService: apartmentService,
		occupancyService: occupancyService,
		paymentService:   paymentService,
		reversalService:  reversalService,
		ledgerService:    ledgerService,
		expenseService:   expenseService,
	}

	apartments := rg.Group("/apartments")
	{
		apartments.GET("/:id", h.getApartment)
		apartments.PUT("/:id/subscription", h.updateSubscription)
		apartments.POST("/:id/occupancy", h.startOccupancy)
		apartments.DELETE("/:id/occupancy", h.terminateOccupancy)
		apartments.GET("/:id/periods", h.listPeriods)
		apartments.GET("/:id/charges", h.listCharges)
		apartments.POST("/:id/payments", h.recordPayment)
		apartments.GET("/:id/payments", h.listPayments)
		apartments.GET("/:id/ledger", h.getStatement)
		apartments.POST("/:id/write-off", h.writeOffBalance)
	}
}

// getApartment godoc
// @Summary Get an apartment by ID
// @Tags apartments
// @Produce json
// @Param id path string true "Apartment ID"
// @Success 200 {object} dto.ApartmentResponse
// @Failure 404 {object} map[string]string "Apartment not found"
// @Security BearerAuth
// @Router /apartments/{id} [get]
func (h *apartmentHandler) getApartment(c *gin.Context) {
	apartment, err := h.apartmentService.GetApartmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToApartmentResponse(apartment))
}

// updateSubscription godoc
// @Summary Change an apartment's monthly subscription amount
// @Tags apartments
// @Accept json
// @Param id path string true "Apartment ID"
// @Param subscription body dto.UpdateSubscriptionRequest true "New amount"
// @Success 204
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Apartment not found"
// @Security BearerAuth
// @Router /apartments/{id}/subscription [put]
func (h *apartmentHandler) updateSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for updateSubscription", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	if err := h.apartmentService.UpdateSubscriptionAmount(c.Request.Context(), c.Param("id"), req, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// startOccupancy godoc
// @Summary Start a tenancy on a vacant apartment
// @Description Opens an occupancy period and backfills the apartment's day-prorated share of expenses dated within or after the occupancy month.
// @Tags apartments
// @Accept json
// @Produce json
// @Param id path string true "Apartment ID"
// @Param occupancy body dto.StartOccupancyRequest true "Tenancy details"
// @Success 201 {object} dto.OccupancyPeriodResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Apartment not found"
// @Failure 409 {object} map[string]string "Apartment already occupied"
// @Security BearerAuth
// @Router /apartments/{id}/occupancy [post]
func (h *apartmentHandler) startOccupancy(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.StartOccupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for startOccupancy", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	period, err := h.occupancyService.StartOccupancy(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToOccupancyPeriodResponse(period))
}

// terminateOccupancy godoc
// @Summary End the current tenancy
// @Description Closes the open occupancy period with a closing balance snapshot, credits back the unused subscription days of the move-out month and flips the apartment to vacant.
// @Tags apartments
// @Accept json
// @Produce json
// @Param id path string true "Apartment ID"
// @Param occupancy body dto.TerminateOccupancyRequest true "End date"
// @Success 200 {object} dto.OccupancyPeriodResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Apartment not found"
// @Failure 409 {object} map[string]string "Apartment not occupied"
// @Security BearerAuth
// @Router /apartments/{id}/occupancy [delete]
func (h *apartmentHandler) terminateOccupancy(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TerminateOccupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for terminateOccupancy", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	period, err := h.occupancyService.TerminateOccupancy(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOccupancyPeriodResponse(period))
}

// listPeriods godoc
// @Summary List an apartment's occupancy periods
// @Tags apartments
// @Produce json
// @Param id path string true "Apartment ID"
// @Success 200 {object} dto.ListOccupancyPeriodsResponse
// @Failure 404 {object} map[string]string "Apartment not found"
// @Security BearerAuth
// @Router /apartments/{id}/periods [get]
func (h *apartmentHandler) listPeriods(c *gin.Context) {
	periods, err := h.occupancyService.ListPeriodsByApartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.ListOccupancyPeriodsResponse{Periods: make([]dto.OccupancyPeriodResponse, len(periods))}
	for i := range periods {
		resp.Periods[i] = dto.ToOccupancyPeriodResponse(&periods[i])
	}
	c.JSON(http.StatusOK, resp)
}

// listCharges godoc
// @Summary List an apartment's expense charges
// @Tags apartments
// @Produce json
// @Param id path string true "Apartment ID"
// @Param includeCanceled query bool false "Include canceled charges"
// @Success 200 {array} dto.ApartmentExpenseResponse
// @Failure 404 {object} map[string]string "Apartment not found"
// @Security BearerAuth
// @Router /apartments/{id}/charges [get]
func (h *apartmentHandler) listCharges(c *gin.Context) {
	includeCanceled, _ := strconv.ParseBool(c.Query("includeCanceled"))
	charges, err := h.expenseService.ListApartmentCharges(c.Request.Context(), c.Param("id"), includeCanceled)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.ApartmentExpenseResponse, len(charges))
	for i := range charges {
		resp[i] = dto.ToApartmentExpenseResponse(&charges[i])
	}
	c.JSON(http.StatusOK, resp)
}

// recordPayment godoc
// @Summary Record a payment from an apartment's tenant
// @Description Records a payment and applies its allocations against outstanding charges. Unallocated remainder stays on the apartment as credit.
// @Tags apartments
// @Accept json
// @Produce json
// @Param id path string true "Apartment ID"
// @Param payment body dto.RecordPaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Apartment not found"
// @Security BearerAuth
// @Router /apartments/{id}/payments [post]
func (h *apartmentHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for recordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// listPayments godoc
// @Summary List an apartment's payments
// @Tags apartments
// @Produce json
// @Param id path string true "Apartment ID"
// @Param includeCanceled query bool false "Include canceled payments"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 404 {object} map[string]string "Apartment not found"
// @Security BearerAuth
// @Router /apartments/{id}/payments [get]
func (h *apartmentHandler) listPayments(c *gin.Context) {
	includeCanceled, _ := strconv.ParseBool(c.Query("includeCanceled"))
	payments, err := h.paymentService.ListPaymentsByApartment(c.Request.Context(), c.Param("id"), includeCanceled)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.ListPaymentsResponse{Payments: make([]dto.PaymentResponse, len(payments))}
	for i := range payments {
		resp.Payments[i] = dto.ToPaymentResponse(&payments[i])
	}
	c.JSON(http.StatusOK, resp)
}

// getStatement godoc
// @Summary Get an apartment's ledger statement
// @Description Returns the apartment's ledger entries newest first, optionally scoped to one occupancy period.
// @Tags apartments
// @Produce json
// @Param id path string true "Apartment ID"
// @Param periodID query string false "Occupancy period ID"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListLedgerEntriesResponse
// @Failure 404 {object} map[string]string "Apartment or period not found"
// @Security BearerAuth
// @Router /apartments/{id}/ledger [get]
func (h *apartmentHandler) getStatement(c *gin.Context) {
	params := dto.ListLedgerEntriesParams{}
	if periodID := c.Query("periodID"); periodID != "" {
		params.PeriodID = &periodID
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		params.Limit = limit
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	resp, err := h.ledgerService.GetStatement(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeOffBalance godoc
// @Summary Write off an apartment's remaining balance
// @Tags apartments
// @Param id path string true "Apartment ID"
// @Success 204
// @Failure 404 {object} map[string]string "Apartment not found"
// @Failure 409 {object} map[string]string "Apartment balance is already zero"
// @Security BearerAuth
// @Router /apartments/{id}/write-off [post]
func (h *apartmentHandler) writeOffBalance(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	if err := h.reversalService.WriteOffBalance(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
