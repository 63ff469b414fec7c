package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
)

func newChatFixture() (*ChatUseCase, *fakeConversationRepo, *fakeItemRepo) {
	conversationRepo := newFakeConversationRepo()
	userRepo := newFakeUserRepo(
		&entity.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana"},
		&entity.User{ID: "u2", Email: "bo@example.com", DisplayName: "Bo"},
		&entity.User{ID: "u3", Email: "cy@example.com", DisplayName: "Cy"},
	)
	itemRepo := newFakeItemRepo(
		&entity.Item{ID: "i1", Name: "Black umbrella", Status: entity.ItemStatusFound, CreatedBy: "u2"},
	)

	uc := NewChatUseCase(conversationRepo, userRepo, itemRepo)
	uc.now = tickingClock()
	return uc, conversationRepo, itemRepo
}

func TestFindOrCreateConversationIsIdempotent(t *testing.T) {
	uc, _, _ := newChatFixture()
	ctx := context.Background()

	first, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2", ItemID: "i1"})
	require.NoError(t, err)

	second, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2", ItemID: "i1"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	// The pair is unordered: the recipient starting the same conversation
	// lands on the same document.
	fromOtherSide, err := uc.FindOrCreateConversation(ctx, "u2", StartConversationInput{RecipientID: "u1", ItemID: "i1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, fromOtherSide.ID)

	assert.Equal(t, "Black umbrella", first.ItemName)
	assert.Equal(t, "", first.LastMessage)
	assert.NotEmpty(t, first.LastMessageAt)
	assert.Equal(t, "Ana", first.ParticipantNames["u1"])
	assert.Equal(t, "Bo", first.ParticipantNames["u2"])
}

func TestFindOrCreateConversationScopesByItem(t *testing.T) {
	uc, _, _ := newChatFixture()
	ctx := context.Background()

	itemScoped, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2", ItemID: "i1"})
	require.NoError(t, err)

	general, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2"})
	require.NoError(t, err)

	// The no-item thread is its own scope, not the item-scoped one.
	assert.NotEqual(t, itemScoped.ID, general.ID)
	assert.Equal(t, "", general.ItemID)
	assert.Equal(t, "", general.ItemName)

	again, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, general.ID, again.ID)
}

func TestFindOrCreateConversationSelfChatRejected(t *testing.T) {
	uc, _, _ := newChatFixture()

	_, err := uc.FindOrCreateConversation(context.Background(), "u1", StartConversationInput{RecipientID: "u1"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestFindOrCreateConversationLosesRaceToConcurrentCreator(t *testing.T) {
	uc, conversationRepo, _ := newChatFixture()
	ctx := context.Background()

	// A concurrent creator already wrote the canonical document, but the
	// scan does not see it yet (the query index lags the write).
	winner := &entity.Conversation{
		ID:           entity.ConversationID("u1", "u2", "i1"),
		Participants: []string{"u2", "u1"},
		ParticipantNames: map[string]string{
			"u1": "Ana",
			"u2": "Bo",
		},
		ItemID:        "i1",
		ItemName:      "Black umbrella",
		LastMessageAt: "2025-06-01T09:00:00Z",
	}
	require.NoError(t, conversationRepo.Create(ctx, winner))
	conversationRepo.hiddenFromScan[winner.ID] = true

	got, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2", ItemID: "i1"})
	require.NoError(t, err)

	// The loser read the winner's document back instead of duplicating.
	assert.Equal(t, winner.ID, got.ID)
	assert.Equal(t, "2025-06-01T09:00:00Z", got.LastMessageAt)
}

func TestListConversationsSortsByActivity(t *testing.T) {
	uc, conversationRepo, _ := newChatFixture()
	ctx := context.Background()

	for id, lastAt := range map[string]string{
		"c-old": "2025-06-01T08:00:00Z",
		"c-new": "2025-06-01T12:00:00Z",
		"c-mid": "2025-06-01T10:00:00Z",
	} {
		require.NoError(t, conversationRepo.Create(ctx, &entity.Conversation{
			ID:            id,
			Participants:  []string{"u1", "u2"},
			LastMessageAt: lastAt,
		}))
	}

	conversations, err := uc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, conversations, 3)
	assert.Equal(t, "c-new", conversations[0].ID)
	assert.Equal(t, "c-mid", conversations[1].ID)
	assert.Equal(t, "c-old", conversations[2].ID)
}

func TestSendMessageUpdatesSummary(t *testing.T) {
	uc, conversationRepo, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2", ItemID: "i1"})
	require.NoError(t, err)

	message, err := uc.SendMessage(ctx, "u1", SendMessageInput{ConversationID: conversation.ID, Text: "is this yours?"})
	require.NoError(t, err)

	assert.Equal(t, "u1", message.SenderID)
	assert.Equal(t, "Ana", message.SenderName)
	assert.False(t, message.Read)
	assert.NotEmpty(t, message.SentAt)

	updated, err := conversationRepo.GetByID(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "is this yours?", updated.LastMessage)
	assert.Equal(t, message.SentAt, updated.LastMessageAt)
	assert.Equal(t, "u1", updated.LastSenderID)
}

func TestSendMessageSurvivesSummaryFailure(t *testing.T) {
	uc, conversationRepo, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2"})
	require.NoError(t, err)

	conversationRepo.summaryErr = errors.Unavailable("store down", nil)

	// The message write succeeded; a stale summary must not fail the send.
	message, err := uc.SendMessage(ctx, "u1", SendMessageInput{ConversationID: conversation.ID, Text: "hello"})
	require.NoError(t, err)
	require.NotNil(t, message)

	messages, err := uc.ListMessages(ctx, "u1", conversation.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	stale, err := conversationRepo.GetByID(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "", stale.LastMessage)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	uc, _, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u3", SendMessageInput{ConversationID: conversation.ID, Text: "let me in"})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestListMessagesOrderedBySentAt(t *testing.T) {
	uc, _, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2"})
	require.NoError(t, err)

	texts := []string{"first", "second", "third", "fourth"}
	for i, text := range texts {
		sender := "u1"
		if i%2 == 1 {
			sender = "u2"
		}
		_, err := uc.SendMessage(ctx, sender, SendMessageInput{ConversationID: conversation.ID, Text: text})
		require.NoError(t, err)
	}

	messages, err := uc.ListMessages(ctx, "u1", conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(texts))
	for i, text := range texts {
		assert.Equal(t, text, messages[i].Text)
	}
	for i := 1; i < len(messages); i++ {
		assert.LessOrEqual(t, messages[i-1].SentAt, messages[i].SentAt)
	}
}

func TestMarkMessagesReadIsIdempotent(t *testing.T) {
	uc, _, _ := newChatFixture()
	ctx := context.Background()

	conversation, err := uc.FindOrCreateConversation(ctx, "u1", StartConversationInput{RecipientID: "u2"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u1", SendMessageInput{ConversationID: conversation.ID, Text: "from ana"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "u2", SendMessageInput{ConversationID: conversation.ID, Text: "from bo"})
	require.NoError(t, err)

	require.NoError(t, uc.MarkMessagesRead(ctx, "u1", conversation.ID))

	snapshot := func() map[string]bool {
		messages, err := uc.ListMessages(ctx, "u1", conversation.ID)
		require.NoError(t, err)
		read := make(map[string]bool, len(messages))
		for _, message := range messages {
			read[message.Text] = message.Read
		}
		return read
	}

	afterFirst := snapshot()
	// Only the peer's message flips; the reader's own stays unread.
	assert.False(t, afterFirst["from ana"])
	assert.True(t, afterFirst["from bo"])

	require.NoError(t, uc.MarkMessagesRead(ctx, "u1", conversation.ID))
	assert.Equal(t, afterFirst, snapshot())
}

func TestStreamMessagesDeliversSortedSnapshots(t *testing.T) {
	uc, conversationRepo, _ := newChatFixture()

	conversationRepo.messageSnapshots = []repository.MessageSnapshot{
		{Messages: []*entity.Message{
			{ID: "m2", Text: "b", SentAt: "2025-06-01T10:00:02Z"},
			{ID: "m1", Text: "a", SentAt: "2025-06-01T10:00:01Z"},
		}},
		{Messages: []*entity.Message{
			{ID: "m3", Text: "c", SentAt: "2025-06-01T10:00:03Z"},
			{ID: "m2", Text: "b", SentAt: "2025-06-01T10:00:02Z"},
			{ID: "m1", Text: "a", SentAt: "2025-06-01T10:00:01Z"},
		}},
	}

	var deliveries [][]*entity.Message
	for snapshot := range uc.StreamMessages(context.Background(), "c1") {
		require.NoError(t, snapshot.Err)
		deliveries = append(deliveries, snapshot.Messages)
	}

	require.Len(t, deliveries, 2)
	assert.Equal(t, "a", deliveries[0][0].Text)
	assert.Equal(t, "b", deliveries[0][1].Text)
	// Every delivery is the full list, re-sorted ascending.
	require.Len(t, deliveries[1], 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{deliveries[1][0].Text, deliveries[1][1].Text, deliveries[1][2].Text})
}

func TestStreamConversationsForwardsErrors(t *testing.T) {
	uc, conversationRepo, _ := newChatFixture()

	conversationRepo.conversationSnapshots = []repository.ConversationSnapshot{
		{Conversations: []*entity.Conversation{{ID: "c1", LastMessageAt: "2025-06-01T10:00:00Z"}}},
		{Err: errors.Unavailable("listener failed", nil)},
	}

	var snapshots []repository.ConversationSnapshot
	for snapshot := range uc.StreamConversations(context.Background(), "u1") {
		snapshots = append(snapshots, snapshot)
	}

	require.Len(t, snapshots, 2)
	assert.NoError(t, snapshots[0].Err)
	assert.True(t, errors.Is(snapshots[1].Err, "UNAVAILABLE"))
}
