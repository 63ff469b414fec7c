package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
	"back2me/pkg/logger"
)

type firestoreClaimRepository struct {
	client *firestore.Client
}

func NewFirestoreClaimRepository(client *firestore.Client) repository.ClaimRepository {
	return &firestoreClaimRepository{
		client: client,
	}
}

func (r *firestoreClaimRepository) claims() *firestore.CollectionRef {
	return r.client.Collection("claims")
}

func (r *firestoreClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}

	_, err := r.claims().Doc(claim.ID).Set(ctx, claim)
	if err != nil {
		return errors.Unavailable("Failed to create claim", err)
	}

	return nil
}

func (r *firestoreClaimRepository) GetByID(ctx context.Context, id string) (*entity.Claim, error) {
	doc, err := r.claims().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Claim", nil)
		}
		return nil, errors.Unavailable("Failed to get claim", err)
	}

	var claim entity.Claim
	if err := doc.DataTo(&claim); err != nil {
		return nil, errors.Internal("Failed to parse claim data", err)
	}
	claim.ID = doc.Ref.ID

	return &claim, nil
}

func (r *firestoreClaimRepository) UpdateStatus(ctx context.Context, id, claimStatus string) error {
	_, err := r.claims().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: claimStatus},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Claim", nil)
		}
		return errors.Unavailable("Failed to update claim status", err)
	}

	return nil
}

func (r *firestoreClaimRepository) ListByItem(ctx context.Context, itemID string) ([]*entity.Claim, error) {
	return r.listWhere(ctx, "itemId", itemID)
}

func (r *firestoreClaimRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Claim, error) {
	return r.listWhere(ctx, "ownerId", ownerID)
}

func (r *firestoreClaimRepository) ListByClaimer(ctx context.Context, claimerID string) ([]*entity.Claim, error) {
	return r.listWhere(ctx, "claimerId", claimerID)
}

func (r *firestoreClaimRepository) listWhere(ctx context.Context, field, value string) ([]*entity.Claim, error) {
	docs, err := r.claims().Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching claims by %s=%s: %v", field, value, err)
		return nil, errors.Unavailable("Failed to fetch claims", err)
	}

	var claims []*entity.Claim
	for _, doc := range docs {
		var claim entity.Claim
		if err := doc.DataTo(&claim); err != nil {
			logger.Warn("Skipping malformed claim %s: %v", doc.Ref.ID, err)
			continue
		}
		claim.ID = doc.Ref.ID
		claims = append(claims, &claim)
	}

	return claims, nil
}

func (r *firestoreClaimRepository) ExistsForItemAndClaimer(ctx context.Context, itemID, claimerID string) (bool, error) {
	iter := r.claims().
		Where("itemId", "==", itemID).
		Where("claimerId", "==", claimerID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, errors.Unavailable("Failed to check existing claim", err)
	}

	return true, nil
}

func (r *firestoreClaimRepository) CountPendingByOwner(ctx context.Context, ownerID string) (int, error) {
	docs, err := r.claims().
		Where("ownerId", "==", ownerID).
		Where("status", "==", entity.ClaimStatusPending).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Unavailable("Failed to count pending claims", err)
	}

	return len(docs), nil
}
