package services

import (
	"context"
	"testing"
	"time"

	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/repositories/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	svc       ChatService
	backend   *recordingBackend
	messenger *fakeMessenger
	repo      postgres.ChatRepository
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := openTestDB(t)
	seedUser(t, db, "client-1", "Carla")
	seedUser(t, db, "freelancer-1", "Frank")
	seedUser(t, db, "outsider-1", "Oscar")

	backend := newRecordingBackend()
	messenger := &fakeMessenger{}
	repo := postgres.NewChatRepository(db)
	svc := NewChatService(repo, cache.NewStore(backend), messenger, nil, nil)

	return &chatFixture{svc: svc, backend: backend, messenger: messenger, repo: repo}
}

func (f *chatFixture) createChat(t *testing.T) *models.ChatResponse {
	t.Helper()
	chat, err := f.svc.CreateChat(context.Background(), &models.CreateChatRequest{
		ClientID:     "client-1",
		FreelancerID: "freelancer-1",
	})
	require.NoError(t, err)
	return chat
}

func TestCheckChatExistsIsSymmetric(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	result, err := f.svc.CheckChatExists(ctx, "client-1", "freelancer-1")
	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.Zero(t, result.ChatID)

	chat := f.createChat(t)

	forward, err := f.svc.CheckChatExists(ctx, "client-1", "freelancer-1")
	require.NoError(t, err)
	reversed, err := f.svc.CheckChatExists(ctx, "freelancer-1", "client-1")
	require.NoError(t, err)

	assert.True(t, forward.Exists)
	assert.True(t, reversed.Exists)
	assert.Equal(t, chat.ChatID, forward.ChatID)
	assert.Equal(t, chat.ChatID, reversed.ChatID)
}

func TestCreateChatIsIdempotent(t *testing.T) {
	f := newChatFixture(t)

	first := f.createChat(t)
	second := f.createChat(t)

	assert.Equal(t, first.ChatID, second.ChatID)

	// Only the actual creation touches the chat-list caches, once per
	// participant.
	assert.Equal(t, []string{
		cache.UserChatsKey("client-1"),
		cache.UserChatsKey("freelancer-1"),
	}, f.backend.removed)
}

func TestCreateChatResolvesOtherParticipantName(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)
	assert.Equal(t, "Frank", chat.OtherUserName)
}

func TestCreateChatValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateChat(ctx, &models.CreateChatRequest{ClientID: "client-1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateChat(ctx, &models.CreateChatRequest{ClientID: "client-1", FreelancerID: "client-1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)

	_, err := f.svc.SendMessage(context.Background(), chat.ChatID, "client-1", "   \t ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.messenger.sent())
}

func TestSendMessageNonParticipant(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, chat.ChatID, "outsider-1", "let me in")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	messages, err := f.repo.ListMessages(ctx, chat.ChatID)
	require.NoError(t, err)
	assert.Empty(t, messages, "rejected message must not persist")
	assert.Empty(t, f.messenger.sent())
}

func TestSendMessageMissingChatLooksLikeNotAuthorized(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), 999, "client-1", "anyone there?")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestSendMessagePersistsBroadcastsAndInvalidates(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)
	f.backend.removed = nil
	ctx := context.Background()

	resp, err := f.svc.SendMessage(ctx, chat.ChatID, "client-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.True(t, resp.IsFromMe, "sender's own view carries isFromMe")
	assert.NotZero(t, resp.MessageID)

	messages, err := f.repo.ListMessages(ctx, chat.ChatID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "client-1", messages[0].SenderID)

	assert.Equal(t, []string{
		cache.ChatMessagesKey(chat.ChatID),
		cache.UserChatsKey("client-1"),
		cache.UserChatsKey("freelancer-1"),
	}, f.backend.removed)

	sends := f.messenger.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "1", sends[0].roomID)
	assert.Equal(t, "ReceiveMessage", sends[0].event)
	record, ok := sends[0].payload.(models.MessageRecord)
	require.True(t, ok, "broadcast payload must be the viewer-agnostic record")
	assert.Equal(t, "hello", record.Content)
}

func TestSendMessageSchedulesRebroadcasts(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "client-1", "Carla")
	seedUser(t, db, "freelancer-1", "Frank")

	messenger := &fakeMessenger{}
	rebroadcaster := NewRebroadcasterWithDelays(messenger, []time.Duration{5 * time.Millisecond, 10 * time.Millisecond})
	defer rebroadcaster.Stop()

	repo := postgres.NewChatRepository(db)
	svc := NewChatService(repo, cache.NewStore(newRecordingBackend()), messenger, rebroadcaster, nil)
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, &models.CreateChatRequest{ClientID: "client-1", FreelancerID: "freelancer-1"})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, chat.ChatID, "client-1", "hello")
	require.NoError(t, err)

	// One immediate send plus one per configured delay.
	waitFor(t, time.Second, func() bool { return len(messenger.sent()) == 3 })
	for _, send := range messenger.sent() {
		assert.Equal(t, "1", send.roomID)
		assert.Equal(t, "ReceiveMessage", send.event)
	}
}

func TestGetChatMessagesPerViewerPerspective(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, chat.ChatID, "client-1", "hi Frank")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, chat.ChatID, "freelancer-1", "hi Carla")
	require.NoError(t, err)

	// First read populates the cache with the client's request; the
	// freelancer's read then comes from the cache. Both perspectives must
	// still be correct.
	clientView, err := f.svc.GetChatMessages(ctx, chat.ChatID, "client-1")
	require.NoError(t, err)
	freelancerView, err := f.svc.GetChatMessages(ctx, chat.ChatID, "freelancer-1")
	require.NoError(t, err)

	require.Len(t, clientView, 2)
	require.Len(t, freelancerView, 2)

	assert.True(t, clientView[0].IsFromMe)
	assert.False(t, clientView[1].IsFromMe)
	assert.False(t, freelancerView[0].IsFromMe)
	assert.True(t, freelancerView[1].IsFromMe)

	// Oldest first.
	assert.Equal(t, "hi Frank", clientView[0].Content)
	assert.Equal(t, "hi Carla", clientView[1].Content)
}

func TestGetChatMessagesNonParticipant(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)

	_, err := f.svc.GetChatMessages(context.Background(), chat.ChatID, "outsider-1")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestGetUserChatsIncludesPreview(t *testing.T) {
	f := newChatFixture(t)
	chat := f.createChat(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, chat.ChatID, "freelancer-1", "I can start Monday")
	require.NoError(t, err)

	chats, err := f.svc.GetUserChats(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, chats, 1)

	got := chats[0]
	assert.Equal(t, chat.ChatID, got.ChatID)
	assert.Equal(t, "Frank", got.OtherUserName)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "I can start Monday", *got.LastMessage)
	assert.NotNil(t, got.LastMessageTime)
	assert.False(t, got.IsLastMessageFromMe)

	// The freelancer sees the same chat from the other side.
	chats, err = f.svc.GetUserChats(ctx, "freelancer-1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Carla", chats[0].OtherUserName)
	assert.True(t, chats[0].IsLastMessageFromMe)
}

func TestGetUserChatsEmptyForUnknownUser(t *testing.T) {
	f := newChatFixture(t)

	chats, err := f.svc.GetUserChats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, chats)
}
