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

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection("conversations")
}

func (r *firestoreConversationRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.conversations().Doc(conversationID).Collection("messages")
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}

	// Doc.Create (not Set) so two racing creators of the same canonical ID
	// collide; the loser sees ALREADY_EXISTS and reads the winner back.
	_, err := r.conversations().Doc(conversation.ID).Create(ctx, conversation)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Conversation already exists")
		}
		return errors.Unavailable("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Unavailable("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	// The store cannot express "contains A AND contains B" or combine the
	// array filter with ordering, so this is the coarse server-side half of
	// the pipeline; callers scan and sort the result in memory.
	query := r.conversations().Where("participants", "array-contains", userID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, errors.Unavailable("Failed to fetch conversations", err)
	}

	var conversations []*entity.Conversation
	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) UpdateSummary(ctx context.Context, id, lastMessage, lastMessageAt, lastSenderID string) error {
	_, err := r.conversations().Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: lastMessage},
		{Path: "lastMessageAt", Value: lastMessageAt},
		{Path: "lastSenderId", Value: lastSenderID},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", nil)
		}
		return errors.Unavailable("Failed to update conversation summary", err)
	}

	return nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, conversationID string, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	_, err := r.messages(conversationID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Unavailable("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	iter := r.messages(conversationID).Documents(ctx)

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Unavailable("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreConversationRepository) ListUnreadMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	docs, err := r.messages(conversationID).Where("read", "==", false).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Unavailable("Failed to fetch unread messages", err)
	}

	var messages []*entity.Message
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s: %v", doc.Ref.ID, err)
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreConversationRepository) SetMessageRead(ctx context.Context, conversationID, messageID string) error {
	_, err := r.messages(conversationID).Doc(messageID).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Message deleted between query and update; nothing to flip.
			return nil
		}
		return errors.Unavailable("Failed to mark message read", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListenMessages(ctx context.Context, conversationID string) <-chan repository.MessageSnapshot {
	out := make(chan repository.MessageSnapshot, 1)
	snapshots := r.messages(conversationID).Snapshots(ctx)

	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			snapshot, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				deliverMessages(ctx, out, repository.MessageSnapshot{
					Err: errors.Unavailable("Message listener failed", err),
				})
				return
			}

			docs, err := snapshot.Documents.GetAll()
			if err != nil {
				deliverMessages(ctx, out, repository.MessageSnapshot{
					Err: errors.Unavailable("Failed to read message snapshot", err),
				})
				return
			}

			var messages []*entity.Message
			for _, doc := range docs {
				var message entity.Message
				if err := doc.DataTo(&message); err != nil {
					logger.Warn("Skipping malformed message %s: %v", doc.Ref.ID, err)
					continue
				}
				message.ID = doc.Ref.ID
				messages = append(messages, &message)
			}

			if !deliverMessages(ctx, out, repository.MessageSnapshot{Messages: messages}) {
				return
			}
		}
	}()

	return out
}

func (r *firestoreConversationRepository) ListenByParticipant(ctx context.Context, userID string) <-chan repository.ConversationSnapshot {
	out := make(chan repository.ConversationSnapshot, 1)
	snapshots := r.conversations().Where("participants", "array-contains", userID).Snapshots(ctx)

	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			snapshot, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				deliverConversations(ctx, out, repository.ConversationSnapshot{
					Err: errors.Unavailable("Conversation listener failed", err),
				})
				return
			}

			docs, err := snapshot.Documents.GetAll()
			if err != nil {
				deliverConversations(ctx, out, repository.ConversationSnapshot{
					Err: errors.Unavailable("Failed to read conversation snapshot", err),
				})
				return
			}

			var conversations []*entity.Conversation
			for _, doc := range docs {
				var conversation entity.Conversation
				if err := doc.DataTo(&conversation); err != nil {
					logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
					continue
				}
				conversation.ID = doc.Ref.ID
				conversations = append(conversations, &conversation)
			}

			if !deliverConversations(ctx, out, repository.ConversationSnapshot{Conversations: conversations}) {
				return
			}
		}
	}()

	return out
}

func deliverMessages(ctx context.Context, out chan<- repository.MessageSnapshot, snapshot repository.MessageSnapshot) bool {
	select {
	case out <- snapshot:
		return true
	case <-ctx.Done():
		return false
	}
}

func deliverConversations(ctx context.Context, out chan<- repository.ConversationSnapshot, snapshot repository.ConversationSnapshot) bool {
	select {
	case out <- snapshot:
		return true
	case <-ctx.Done():
		return false
	}
}
