package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
	"back2me/pkg/logger"
)

type firestoreItemRepository struct {
	client *firestore.Client
}

func NewFirestoreItemRepository(client *firestore.Client) repository.ItemRepository {
	return &firestoreItemRepository{
		client: client,
	}
}

func (r *firestoreItemRepository) items() *firestore.CollectionRef {
	return r.client.Collection("items")
}

func (r *firestoreItemRepository) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	_, err := r.items().Doc(item.ID).Set(ctx, item)
	if err != nil {
		return errors.Unavailable("Failed to create item", err)
	}

	return nil
}

func (r *firestoreItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	doc, err := r.items().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Item", nil)
		}
		return nil, errors.Unavailable("Failed to get item", err)
	}

	var item entity.Item
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse item data", err)
	}
	item.ID = doc.Ref.ID

	return &item, nil
}

func (r *firestoreItemRepository) List(ctx context.Context, itemStatus string) ([]*entity.Item, error) {
	query := r.items().Query
	if itemStatus != "" {
		query = query.Where("status", "==", itemStatus)
	}

	return r.collect(ctx, query)
}

func (r *firestoreItemRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Item, error) {
	return r.collect(ctx, r.items().Where("createdBy", "==", ownerID))
}

func (r *firestoreItemRepository) collect(ctx context.Context, query firestore.Query) ([]*entity.Item, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching items: %v", err)
		return nil, errors.Unavailable("Failed to fetch items", err)
	}

	var items []*entity.Item
	for _, doc := range docs {
		var item entity.Item
		if err := doc.DataTo(&item); err != nil {
			logger.Warn("Skipping malformed item %s: %v", doc.Ref.ID, err)
			continue
		}
		item.ID = doc.Ref.ID
		items = append(items, &item)
	}

	return items, nil
}

func (r *firestoreItemRepository) Update(ctx context.Context, item *entity.Item) error {
	_, err := r.items().Doc(item.ID).Set(ctx, item)
	if err != nil {
		return errors.Unavailable("Failed to update item", err)
	}

	return nil
}

func (r *firestoreItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.items().Doc(id).Delete(ctx)
	if err != nil {
		return errors.Unavailable("Failed to delete item", err)
	}

	return nil
}
