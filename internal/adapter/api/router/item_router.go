package router

import (
	"github.com/labstack/echo/v4"

	"back2me/internal/adapter/api/handler"
	"back2me/internal/adapter/api/middleware"
)

func SetupItemRouter(e *echo.Echo, itemHandler *handler.ItemHandler, authMiddleware *middleware.AuthMiddleware) {
	items := e.Group("/v1/items")
	items.Use(authMiddleware.Authenticate)

	items.POST("", itemHandler.CreateItem)
	items.GET("", itemHandler.ListItems) // ?status=lost|found|resolved&q=search
	items.GET("/mine", itemHandler.MyItems)
	items.GET("/:id", itemHandler.GetItem)
	items.PUT("/:id", itemHandler.UpdateItem)
	items.DELETE("/:id", itemHandler.DeleteItem)
}
