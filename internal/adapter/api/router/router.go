package router

import (
	"github.com/labstack/echo/v4"

	"back2me/internal/adapter/api/handler"
	"back2me/internal/adapter/api/middleware"
)

// Setup wires auth and profile routes.
func Setup(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	e.POST("/v1/auth/register", authHandler.Register)

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)
	users.GET("/me", authHandler.GetProfile)
	users.PUT("/me", authHandler.UpdateProfile)
}
