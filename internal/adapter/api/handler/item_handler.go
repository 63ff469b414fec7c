package handler

import (
	"back2me/internal/usecase"
	"back2me/pkg/response"

	"github.com/labstack/echo/v4"
)

type ItemHandler struct {
	itemUseCase *usecase.ItemUseCase
}

func NewItemHandler(itemUseCase *usecase.ItemUseCase) *ItemHandler {
	return &ItemHandler{
		itemUseCase: itemUseCase,
	}
}

type createItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"required,oneof=lost found"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

type updateItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"required,oneof=lost found resolved"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	item, err := h.itemUseCase.CreateItem(c.Request().Context(), userID, usecase.CreateItemInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Status:      req.Status,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, item)
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	item, err := h.itemUseCase.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, item)
}

func (h *ItemHandler) ListItems(c echo.Context) error {
	items, err := h.itemUseCase.ListItems(c.Request().Context(), usecase.ListItemsInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func (h *ItemHandler) MyItems(c echo.Context) error {
	userID := c.Get("uid").(string)

	items, err := h.itemUseCase.MyItems(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func (h *ItemHandler) UpdateItem(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	item, err := h.itemUseCase.UpdateItem(c.Request().Context(), userID, c.Param("id"), usecase.UpdateItemInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Status:      req.Status,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.itemUseCase.DeleteItem(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}
