package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/shikunim/building_mgmt_app/cmd/docs"
	"github.com/shikunim/building_mgmt_app/internal/apperrors"
	portssvc "github.com/shikunim/building_mgmt_app/internal/core/ports/services"
	"github.com/shikunim/building_mgmt_app/internal/middleware"
	"github.com/shikunim/building_mgmt_app/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// using the service container interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Public authentication routes
	registerAuthRoutes(r, services.Auth, services.User)

	setupAPIV1Routes(r, cfg, services)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerUserRoutes(v1, services.User)
	registerBuildingRoutes(v1, services.Building, services.Apartment, services.Expense)
	RegisterApartmentRoutes(v1, services.Apartment, services.Occupancy, services.Payment, services.Reversal, services.Ledger, services.Expense)
	registerChargeRoutes(v1, services.Reversal)
	registerPaymentRoutes(v1, services.Reversal)
	registerOpsRoutes(v1, services.Expense, services.Subscription)
}

// setupSwaggerRoutes configures the swagger documentation routes.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// respondError translates a service error into an HTTP response using the
// status hint carried by the error chain.
func respondError(c *gin.Context, err error) {
	status := apperrors.StatusHint(err)
	if status >= http.StatusInternalServerError {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Request failed", "error", err.Error())
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// authenticatedUserID extracts the acting user's ID, aborting with 401
// when it is missing.
func authenticatedUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, errors.Join(apperrors.ErrUnauthorized, errors.New("user ID not found in context")))
		return "", false
	}
	return userID, true
}
