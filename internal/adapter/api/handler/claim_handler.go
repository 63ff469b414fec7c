package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"back2me/internal/usecase"
	apperrors "back2me/pkg/errors"
	"back2me/pkg/response"
)

type ClaimHandler struct {
	claimUseCase *usecase.ClaimUseCase
}

func NewClaimHandler(claimUseCase *usecase.ClaimUseCase) *ClaimHandler {
	return &ClaimHandler{
		claimUseCase: claimUseCase,
	}
}

type createClaimRequest struct {
	ItemID  string `json:"item_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type setClaimStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (h *ClaimHandler) CreateClaim(c echo.Context) error {
	var req createClaimRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	claim, err := h.claimUseCase.CreateClaim(c.Request().Context(), userID, usecase.CreateClaimInput{
		ItemID:  req.ItemID,
		Message: req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, claim)
}

// SetStatus approves or rejects a pending claim. When approval succeeds but
// the item-resolution cascade fails, the claim is still approved: that
// partial outcome is reported with the updated claim attached so the client
// can say "claim approved; item status not updated" instead of a generic
// failure.
func (h *ClaimHandler) SetStatus(c echo.Context) error {
	var req setClaimStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	claim, err := h.claimUseCase.SetClaimStatus(c.Request().Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == "PARTIAL_CASCADE" {
			return response.PartialError(c, claim, appErr)
		}
		return response.Error(c, err)
	}

	return response.Success(c, claim)
}

// ListClaims serves the three query surfaces: ?item_id= for one item's
// claims (owner only), ?role=claimer for claims the caller made, and the
// default of claims on the caller's items.
func (h *ClaimHandler) ListClaims(c echo.Context) error {
	userID := c.Get("uid").(string)
	ctx := c.Request().Context()

	if itemID := c.QueryParam("item_id"); itemID != "" {
		claims, err := h.claimUseCase.ClaimsByItem(ctx, userID, itemID)
		if err != nil {
			return response.Error(c, err)
		}
		return response.Success(c, claims)
	}

	if c.QueryParam("role") == "claimer" {
		claims, err := h.claimUseCase.ClaimsByClaimer(ctx, userID)
		if err != nil {
			return response.Error(c, err)
		}
		return response.Success(c, claims)
	}

	claims, err := h.claimUseCase.ClaimsByOwner(ctx, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, claims)
}

func (h *ClaimHandler) PendingCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.claimUseCase.PendingClaimCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"pending": count})
}
