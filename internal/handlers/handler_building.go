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

// buildingHandler handles HTTP requests for buildings and the
// building-scoped sub-resources (apartments, expenses).
type buildingHandler struct {
	buildingService  portssvc.BuildingSvcFacade
	apartmentService portssvc.ApartmentSvcFacade
	expenseService   portssvc.ExpenseSvcFacade
}

// registerBuildingRoutes registers routes related to buildings.
func registerBuildingRoutes(rg *gin.RouterGroup, buildingService portssvc.BuildingSvcFacade, apartmentService portssvc.ApartmentSvcFacade, expenseService portssvc.ExpenseSvcFacade) {
	h := &buildingHandler{
		buildingService:  buildingService,
		apartmentService: apartmentService,
		expenseService:   expenseService,
	}

	buildings := rg.Group("/buildings")
	{
		buildings.POST("", h.createBuilding)
		buildings.GET("", h.listBuildings)
		buildings.GET("/:id", h.getBuilding)
		buildings.POST("/:id/apartments", h.createApartment)
		buildings.GET("/:id/apartments", h.listApartments)
		buildings.POST("/:id/expenses", h.createExpense)
		buildings.GET("/:id/expenses", h.listExpenses)
	}

	rg.GET("/expenses/:id", h.getExpense)
}

// createBuilding godoc
// @Summary Create a new building
// @Tags buildings
// @Accept json
// @Produce json
// @Param building body dto.CreateBuildingRequest true "Building details"
// @Success 201 {object} dto.BuildingResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Security BearerAuth
// @Router /buildings [post]
func (h *buildingHandler) createBuilding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createBuilding", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	building, err := h.buildingService.CreateBuilding(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToBuildingResponse(building))
}

// listBuildings godoc
// @Summary List all buildings
// @Tags buildings
// @Produce json
// @Success 200 {object} dto.ListBuildingsResponse
// @Security BearerAuth
// @Router /buildings [get]
func (h *buildingHandler) listBuildings(c *gin.Context) {
	buildings, err := h.buildingService.ListBuildings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.ListBuildingsResponse{Buildings: make([]dto.BuildingResponse, len(buildings))}
	for i := range buildings {
		resp.Buildings[i] = dto.ToBuildingResponse(&buildings[i])
	}
	c.JSON(http.StatusOK, resp)
}

// getBuilding godoc
// @Summary Get a building by ID
// @Tags buildings
// @Produce json
// @Param id path string true "Building ID"
// @Success 200 {object} dto.BuildingResponse
// @Failure 404 {object} map[string]string "Building not found"
// @Security BearerAuth
// @Router /buildings/{id} [get]
func (h *buildingHandler) getBuilding(c *gin.Context) {
	building, err := h.buildingService.GetBuildingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBuildingResponse(building))
}

// createApartment godoc
// @Summary Create an apartment in a building
// @Tags buildings
// @Accept json
// @Produce json
// @Param id path string true "Building ID"
// @Param apartment body dto.CreateApartmentRequest true "Apartment details"
// @Success 201 {object} dto.ApartmentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Building not found"
// @Failure 409 {object} map[string]string "Apartment number already exists"
// @Security BearerAuth
// @Router /buildings/{id}/apartments [post]
func (h *buildingHandler) createApartment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createApartment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	apartment, err := h.apartmentService.CreateApartment(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToApartmentResponse(apartment))
}

// listApartments godoc
// @Summary List a building's apartments
// @Tags buildings
// @Produce json
// @Param id path string true "Building ID"
// @Success 200 {object} dto.ListApartmentsResponse
// @Failure 404 {object} map[string]string "Building not found"
// @Security BearerAuth
// @Router /buildings/{id}/apartments [get]
func (h *buildingHandler) listApartments(c *gin.Context) {
	apartments, err := h.apartmentService.ListApartmentsByBuilding(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.ListApartmentsResponse{Apartments: make([]dto.ApartmentResponse, len(apartments))}
	for i := range apartments {
		resp.Apartments[i] = dto.ToApartmentResponse(&apartments[i])
	}
	c.JSON(http.StatusOK, resp)
}

// createExpense godoc
// @Summary Record an expense for a building
// @Description Records an expense. Building-wide expenses are split across occupied regular apartments with cent-exact shares; an expense with apartmentID charges that apartment alone; a recurring expense is stored as a parent and materialized monthly.
// @Tags buildings
// @Accept json
// @Produce json
// @Param id path string true "Building ID"
// @Param expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Building not found"
// @Failure 409 {object} map[string]string "No eligible apartments to split across"
// @Security BearerAuth
// @Router /buildings/{id}/expenses [post]
func (h *buildingHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// getExpense godoc
// @Summary Get an expense by ID
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *buildingHandler) getExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// listExpenses godoc
// @Summary List a building's expenses
// @Tags buildings
// @Produce json
// @Param id path string true "Building ID"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 404 {object} map[string]string "Building not found"
// @Security BearerAuth
// @Router /buildings/{id}/expenses [get]
func (h *buildingHandler) listExpenses(c *gin.Context) {
	params := dto.ListExpensesParams{}
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

	resp, err := h.expenseService.ListExpensesByBuilding(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
