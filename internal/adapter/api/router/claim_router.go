package router

import (
	"github.com/labstack/echo/v4"

	"back2me/internal/adapter/api/handler"
	"back2me/internal/adapter/api/middleware"
)

func SetupClaimRouter(e *echo.Echo, claimHandler *handler.ClaimHandler, authMiddleware *middleware.AuthMiddleware) {
	claims := e.Group("/v1/claims")
	claims.Use(authMiddleware.Authenticate)

	claims.POST("", claimHandler.CreateClaim)
	claims.GET("", claimHandler.ListClaims) // ?item_id= | ?role=claimer | default: by owner
	claims.GET("/pending-count", claimHandler.PendingCount)
	claims.PUT("/:id/status", claimHandler.SetStatus)
}
