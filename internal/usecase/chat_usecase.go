package usecase

import (
	"context"
	"sort"
	"time"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
	"back2me/pkg/logger"
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	itemRepo         repository.ItemRepository
	now              func() string
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	itemRepo repository.ItemRepository,
) *ChatUseCase {
	return &ChatUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		itemRepo:         itemRepo,
		now:              nowUTC,
	}
}

// Instants are stored as UTC RFC-3339 strings so plain string comparison is
// a valid sort key in a store that cannot order by compound keys.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

type StartConversationInput struct {
	RecipientID string
	ItemID      string
}

type SendMessageInput struct {
	ConversationID string
	Text           string
}

// FindOrCreateConversation returns the existing conversation for the
// unordered (caller, recipient) pair scoped to ItemID, or creates it. The
// empty ItemID is its own scope: one general thread per pair, separate from
// any item-scoped threads.
//
// The lookup is a coarse array-contains query on the caller plus an
// in-memory scan for the recipient and item, because the store cannot filter
// on both participants at once. Creation writes to the canonical document ID
// for the pair+item, so a concurrent creator loses with a conflict and we
// read the winner back instead of leaving a duplicate.
func (uc *ChatUseCase) FindOrCreateConversation(ctx context.Context, userID string, input StartConversationInput) (*entity.Conversation, error) {
	if input.RecipientID == userID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	caller, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipient, err := uc.userRepo.GetByID(ctx, input.RecipientID)
	if err != nil {
		return nil, errors.NotFound("Recipient", err)
	}

	itemName := ""
	if input.ItemID != "" {
		item, err := uc.itemRepo.GetByID(ctx, input.ItemID)
		if err != nil {
			return nil, err
		}
		itemName = item.Name
	}

	existing, err := uc.findExistingConversation(ctx, userID, input.RecipientID, input.ItemID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	conversation := &entity.Conversation{
		ID:           entity.ConversationID(userID, input.RecipientID, input.ItemID),
		Participants: []string{userID, input.RecipientID},
		ParticipantNames: map[string]string{
			userID:            caller.DisplayName,
			input.RecipientID: recipient.DisplayName,
		},
		ItemID:        input.ItemID,
		ItemName:      itemName,
		LastMessage:   "",
		LastMessageAt: uc.now(),
		LastSenderID:  "",
	}

	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		if errors.Is(err, "CONFLICT") {
			// Lost the creation race; the winner's document is authoritative.
			return uc.conversationRepo.GetByID(ctx, conversation.ID)
		}
		return nil, err
	}

	return conversation, nil
}

func (uc *ChatUseCase) findExistingConversation(ctx context.Context, userID, recipientID, itemID string) (*entity.Conversation, error) {
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, conversation := range conversations {
		if conversation.HasParticipant(recipientID) && conversation.ItemID == itemID {
			return conversation, nil
		}
	}

	return nil, errors.NotFound("Conversation", nil)
}

// GetConversation loads a conversation the user participates in.
func (uc *ChatUseCase) GetConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this conversation", nil)
	}

	return conversation, nil
}

// ListConversations returns the user's conversations, most recent activity
// first. Ordering is applied here because the store cannot combine the
// participant filter with a sort.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	conversations, err := uc.conversationRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	sortConversationsByActivity(conversations)
	return conversations, nil
}

// SendMessage appends a message and then updates the parent conversation's
// last-message summary as a second, non-transactional write. A failed
// summary write leaves the list entry stale until the next send but never
// blocks delivery of the message itself.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	if input.Text == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}

	conversation, err := uc.GetConversation(ctx, senderID, input.ConversationID)
	if err != nil {
		return nil, err
	}

	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		SenderID:   senderID,
		SenderName: sender.DisplayName,
		Text:       input.Text,
		SentAt:     uc.now(),
		Read:       false,
	}

	if err := uc.conversationRepo.CreateMessage(ctx, conversation.ID, message); err != nil {
		return nil, err
	}

	if err := uc.conversationRepo.UpdateSummary(ctx, conversation.ID, message.Text, message.SentAt, senderID); err != nil {
		logger.Warn("Summary update failed for conversation %s after message %s: %v", conversation.ID, message.ID, err)
	}

	return message, nil
}

// ListMessages returns the full message history, oldest first.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := uc.conversationRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sortMessagesBySentAt(messages)
	return messages, nil
}

// MarkMessagesRead flips read=true on every unread message in the
// conversation that the reader did not send. Idempotent.
func (uc *ChatUseCase) MarkMessagesRead(ctx context.Context, readerID, conversationID string) error {
	if _, err := uc.GetConversation(ctx, readerID, conversationID); err != nil {
		return err
	}

	unread, err := uc.conversationRepo.ListUnreadMessages(ctx, conversationID)
	if err != nil {
		return err
	}

	for _, message := range unread {
		if message.SenderID == readerID {
			continue
		}
		if err := uc.conversationRepo.SetMessageRead(ctx, conversationID, message.ID); err != nil {
			return err
		}
	}

	return nil
}

// StreamMessages delivers the full ordered message list on every change
// until ctx is cancelled. Callers diff consecutive snapshots for rendering.
func (uc *ChatUseCase) StreamMessages(ctx context.Context, conversationID string) <-chan repository.MessageSnapshot {
	in := uc.conversationRepo.ListenMessages(ctx, conversationID)
	out := make(chan repository.MessageSnapshot)

	go func() {
		defer close(out)
		for snapshot := range in {
			if snapshot.Err == nil {
				sortMessagesBySentAt(snapshot.Messages)
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// StreamConversations delivers the user's full conversation list, most
// recent first, on every change.
func (uc *ChatUseCase) StreamConversations(ctx context.Context, userID string) <-chan repository.ConversationSnapshot {
	in := uc.conversationRepo.ListenByParticipant(ctx, userID)
	out := make(chan repository.ConversationSnapshot)

	go func() {
		defer close(out)
		for snapshot := range in {
			if snapshot.Err == nil {
				sortConversationsByActivity(snapshot.Conversations)
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// sortMessagesBySentAt orders ascending. RFC-3339 has second granularity, so
// rapid sends can collide on sentAt; ties break on document ID to keep
// snapshot order deterministic.
func sortMessagesBySentAt(messages []*entity.Message) {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].SentAt != messages[j].SentAt {
			return messages[i].SentAt < messages[j].SentAt
		}
		return messages[i].ID < messages[j].ID
	})
}

func sortConversationsByActivity(conversations []*entity.Conversation) {
	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].LastMessageAt != conversations[j].LastMessageAt {
			return conversations[i].LastMessageAt > conversations[j].LastMessageAt
		}
		return conversations[i].ID < conversations[j].ID
	})
}
