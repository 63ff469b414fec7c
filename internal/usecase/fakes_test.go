package usecase

import (
	"context"
	"fmt"
	"sync"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
)

// In-memory repository fakes. They honor the same contracts as the
// Firestore implementations: conditional conversation creates, unsorted
// list results (ordering is the use case's job) and injectable failures.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

type fakeItemRepo struct {
	mu        sync.Mutex
	items     map[string]*entity.Item
	updateErr error
	nextID    int
}

func newFakeItemRepo(items ...*entity.Item) *fakeItemRepo {
	repo := &fakeItemRepo{items: make(map[string]*entity.Item)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (f *fakeItemRepo) Create(ctx context.Context, item *entity.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		f.nextID++
		item.ID = fmt.Sprintf("item-%d", f.nextID)
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("Item", nil)
	}
	copy := *item
	return &copy, nil
}

func (f *fakeItemRepo) List(ctx context.Context, status string) ([]*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.Item
	for _, item := range f.items {
		if status == "" || item.Status == status {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeItemRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.Item
	for _, item := range f.items {
		if item.CreatedBy == ownerID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeItemRepo) Update(ctx context.Context, item *entity.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	// conversations invisible to ListByParticipant, to simulate a racing
	// creator whose write has not reached the query index yet.
	hiddenFromScan map[string]bool
	summaryErr     error
	nextMessageID  int

	// queued deliveries replayed by the Listen methods
	messageSnapshots      []repository.MessageSnapshot
	conversationSnapshots []repository.ConversationSnapshot
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations:  make(map[string]*entity.Conversation),
		messages:       make(map[string][]*entity.Message),
		hiddenFromScan: make(map[string]bool),
	}
}

func (f *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.conversations[conversation.ID]; exists {
		return errors.Conflict("Conversation already exists")
	}
	f.conversations[conversation.ID] = conversation
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conversation, nil
}

func (f *fakeConversationRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var conversations []*entity.Conversation
	for _, conversation := range f.conversations {
		if f.hiddenFromScan[conversation.ID] {
			continue
		}
		if conversation.HasParticipant(userID) {
			conversations = append(conversations, conversation)
		}
	}
	return conversations, nil
}

func (f *fakeConversationRepo) UpdateSummary(ctx context.Context, id, lastMessage, lastMessageAt, lastSenderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return f.summaryErr
	}
	conversation, ok := f.conversations[id]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conversation.LastMessage = lastMessage
	conversation.LastMessageAt = lastMessageAt
	conversation.LastSenderID = lastSenderID
	return nil
}

func (f *fakeConversationRepo) CreateMessage(ctx context.Context, conversationID string, message *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.ID == "" {
		f.nextMessageID++
		message.ID = fmt.Sprintf("msg-%03d", f.nextMessageID)
	}
	f.messages[conversationID] = append(f.messages[conversationID], message)
	return nil
}

func (f *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.Message(nil), f.messages[conversationID]...), nil
}

func (f *fakeConversationRepo) ListUnreadMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var unread []*entity.Message
	for _, message := range f.messages[conversationID] {
		if !message.Read {
			unread = append(unread, message)
		}
	}
	return unread, nil
}

func (f *fakeConversationRepo) SetMessageRead(ctx context.Context, conversationID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, message := range f.messages[conversationID] {
		if message.ID == messageID {
			message.Read = true
			return nil
		}
	}
	return nil
}

func (f *fakeConversationRepo) ListenMessages(ctx context.Context, conversationID string) <-chan repository.MessageSnapshot {
	out := make(chan repository.MessageSnapshot, len(f.messageSnapshots))
	for _, snapshot := range f.messageSnapshots {
		out <- snapshot
	}
	close(out)
	return out
}

func (f *fakeConversationRepo) ListenByParticipant(ctx context.Context, userID string) <-chan repository.ConversationSnapshot {
	out := make(chan repository.ConversationSnapshot, len(f.conversationSnapshots))
	for _, snapshot := range f.conversationSnapshots {
		out <- snapshot
	}
	close(out)
	return out
}

type fakeClaimRepo struct {
	mu     sync.Mutex
	claims map[string]*entity.Claim
	nextID int
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[string]*entity.Claim)}
}

func (f *fakeClaimRepo) Create(ctx context.Context, claim *entity.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if claim.ID == "" {
		f.nextID++
		claim.ID = fmt.Sprintf("claim-%d", f.nextID)
	}
	f.claims[claim.ID] = claim
	return nil
}

func (f *fakeClaimRepo) GetByID(ctx context.Context, id string) (*entity.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim, ok := f.claims[id]
	if !ok {
		return nil, errors.NotFound("Claim", nil)
	}
	copy := *claim
	return &copy, nil
}

func (f *fakeClaimRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	claim, ok := f.claims[id]
	if !ok {
		return errors.NotFound("Claim", nil)
	}
	claim.Status = status
	return nil
}

func (f *fakeClaimRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Claim, error) {
	return f.listWhere(func(c *entity.Claim) bool { return c.ItemID == itemID })
}

func (f *fakeClaimRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Claim, error) {
	return f.listWhere(func(c *entity.Claim) bool { return c.OwnerID == ownerID })
}

func (f *fakeClaimRepo) ListByClaimer(ctx context.Context, claimerID string) ([]*entity.Claim, error) {
	return f.listWhere(func(c *entity.Claim) bool { return c.ClaimerID == claimerID })
}

func (f *fakeClaimRepo) listWhere(match func(*entity.Claim) bool) ([]*entity.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var claims []*entity.Claim
	for _, claim := range f.claims {
		if match(claim) {
			claims = append(claims, claim)
		}
	}
	return claims, nil
}

func (f *fakeClaimRepo) ExistsForItemAndClaimer(ctx context.Context, itemID, claimerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, claim := range f.claims {
		if claim.ItemID == itemID && claim.ClaimerID == claimerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClaimRepo) CountPendingByOwner(ctx context.Context, ownerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, claim := range f.claims {
		if claim.OwnerID == ownerID && claim.Status == entity.ClaimStatusPending {
			count++
		}
	}
	return count, nil
}

// tickingClock yields strictly increasing RFC-3339 instants, one second
// apart, so write-time ordering is deterministic in tests.
func tickingClock() func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("2025-06-01T10:%02d:%02dZ", counter/60, counter%60)
	}
}
