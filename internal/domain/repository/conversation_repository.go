package repository

import (
	"context"

	"back2me/internal/domain/entity"
)

// ConversationSnapshot is one delivery from a conversation-list listener:
// the full current result set, never a diff.
type ConversationSnapshot struct {
	Conversations []*entity.Conversation
	Err           error
}

// MessageSnapshot is one delivery from a message listener: the full current
// message set of the conversation.
type MessageSnapshot struct {
	Messages []*entity.Message
	Err      error
}

type ConversationRepository interface {
	// Create inserts the conversation at its pre-assigned document ID and
	// fails with a CONFLICT error if that ID already exists, so concurrent
	// creators of the same pair+item collide instead of duplicating.
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	UpdateSummary(ctx context.Context, id, lastMessage, lastMessageAt, lastSenderID string) error

	CreateMessage(ctx context.Context, conversationID string, message *entity.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	ListUnreadMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	SetMessageRead(ctx context.Context, conversationID, messageID string) error

	// ListenMessages and ListenByParticipant deliver a snapshot on every
	// change until ctx is cancelled, then close the channel. A failed
	// listener delivers one snapshot with Err set and closes.
	ListenMessages(ctx context.Context, conversationID string) <-chan MessageSnapshot
	ListenByParticipant(ctx context.Context, userID string) <-chan ConversationSnapshot
}
