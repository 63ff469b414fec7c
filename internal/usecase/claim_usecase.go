package usecase

import (
	"context"
	"sort"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
	"back2me/pkg/logger"
)

type ClaimUseCase struct {
	claimRepo repository.ClaimRepository
	itemRepo  repository.ItemRepository
	userRepo  repository.UserRepository
	now       func() string
}

func NewClaimUseCase(
	claimRepo repository.ClaimRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
) *ClaimUseCase {
	return &ClaimUseCase{
		claimRepo: claimRepo,
		itemRepo:  itemRepo,
		userRepo:  userRepo,
		now:       nowUTC,
	}
}

type CreateClaimInput struct {
	ItemID  string
	Message string
}

// CreateClaim records a claim against somebody else's item. One claim per
// (item, claimer) pair: a pre-check query rejects duplicates before the
// insert. Status is always pending at creation, whatever the caller sent.
func (uc *ClaimUseCase) CreateClaim(ctx context.Context, claimerID string, input CreateClaimInput) (*entity.Claim, error) {
	item, err := uc.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item.IsOwnedBy(claimerID) {
		return nil, errors.BadRequest("You cannot claim your own item", nil)
	}

	claimer, err := uc.userRepo.GetByID(ctx, claimerID)
	if err != nil {
		return nil, err
	}

	exists, err := uc.claimRepo.ExistsForItemAndClaimer(ctx, input.ItemID, claimerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("You have already claimed this item")
	}

	claim := &entity.Claim{
		ItemID:       item.ID,
		ItemName:     item.Name,
		ItemStatus:   item.Status,
		ClaimerID:    claimerID,
		ClaimerName:  claimer.DisplayName,
		ClaimerEmail: claimer.Email,
		OwnerID:      item.CreatedBy,
		Message:      input.Message,
		Status:       entity.ClaimStatusPending,
		CreatedAt:    uc.now(),
	}

	if err := uc.claimRepo.Create(ctx, claim); err != nil {
		return nil, err
	}

	return claim, nil
}

// SetClaimStatus moves a pending claim to approved or rejected; both are
// terminal. Approval cascades to the item: its status becomes resolved in a
// second write. The claim write is authoritative — if the item write then
// fails, the claim stays approved and the caller gets a PARTIAL_CASCADE
// error carrying the updated claim, so the UI can say exactly what
// happened. Retrying the cascade is safe: resolving a resolved item is a
// no-op.
func (uc *ClaimUseCase) SetClaimStatus(ctx context.Context, ownerID, claimID, newStatus string) (*entity.Claim, error) {
	if newStatus != entity.ClaimStatusApproved && newStatus != entity.ClaimStatusRejected {
		return nil, errors.BadRequest("Status must be approved or rejected", nil)
	}

	claim, err := uc.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.OwnerID != ownerID {
		return nil, errors.Forbidden("Only the item owner can decide a claim", nil)
	}
	if claim.IsDecided() {
		return nil, errors.Conflict("Claim has already been decided")
	}

	if err := uc.claimRepo.UpdateStatus(ctx, claimID, newStatus); err != nil {
		return nil, err
	}
	claim.Status = newStatus

	if newStatus == entity.ClaimStatusApproved {
		if err := uc.resolveItem(ctx, claim.ItemID); err != nil {
			logger.Error("Item %s not resolved after approving claim %s: %v", claim.ItemID, claimID, err)
			return claim, errors.PartialCascade("Claim approved but item status update failed", err)
		}
	}

	return claim, nil
}

func (uc *ClaimUseCase) resolveItem(ctx context.Context, itemID string) error {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status == entity.ItemStatusResolved {
		return nil
	}

	item.Status = entity.ItemStatusResolved
	return uc.itemRepo.Update(ctx, item)
}

// ClaimsByItem lists claims on one item, visible to its owner only.
func (uc *ClaimUseCase) ClaimsByItem(ctx context.Context, requesterID, itemID string) ([]*entity.Claim, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(requesterID) {
		return nil, errors.Forbidden("Only the item owner can view its claims", nil)
	}

	claims, err := uc.claimRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	sortClaimsNewestFirst(claims)
	return claims, nil
}

// ClaimsByOwner lists all claims on the caller's items, newest first.
func (uc *ClaimUseCase) ClaimsByOwner(ctx context.Context, ownerID string) ([]*entity.Claim, error) {
	claims, err := uc.claimRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sortClaimsNewestFirst(claims)
	return claims, nil
}

// ClaimsByClaimer lists the claims the caller has made, newest first.
func (uc *ClaimUseCase) ClaimsByClaimer(ctx context.Context, claimerID string) ([]*entity.Claim, error) {
	claims, err := uc.claimRepo.ListByClaimer(ctx, claimerID)
	if err != nil {
		return nil, err
	}

	sortClaimsNewestFirst(claims)
	return claims, nil
}

// PendingClaimCount is the badge count for the owner's inbox.
func (uc *ClaimUseCase) PendingClaimCount(ctx context.Context, ownerID string) (int, error) {
	return uc.claimRepo.CountPendingByOwner(ctx, ownerID)
}

func sortClaimsNewestFirst(claims []*entity.Claim) {
	sort.Slice(claims, func(i, j int) bool {
		if claims[i].CreatedAt != claims[j].CreatedAt {
			return claims[i].CreatedAt > claims[j].CreatedAt
		}
		return claims[i].ID < claims[j].ID
	})
}
