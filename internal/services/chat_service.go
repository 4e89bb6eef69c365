package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/models"
	"marketplace-chat/internal/repositories/postgres"
	"marketplace-chat/internal/websocket"

	"gorm.io/gorm"
)

const (
	chatListTTL = 1 * time.Hour
	// Message history uses sliding expiration: active chats stay warm,
	// abandoned ones age out.
	chatMessagesTTL = 30 * time.Minute
)

// EventPublisher receives message-created notifications; nil disables it.
type EventPublisher interface {
	MessageCreated(ctx context.Context, record models.MessageRecord) error
}

// ChatService orchestrates chat lifecycle and messaging: existence checks,
// find-or-create, persistence, cache maintenance and room fan-out.
type ChatService interface {
	CheckChatExists(ctx context.Context, userA, userB string) (*models.ChatCheckResponse, error)
	CreateChat(ctx context.Context, req *models.CreateChatRequest) (*models.ChatResponse, error)
	GetUserChats(ctx context.Context, userID string) ([]models.ChatResponse, error)
	SendMessage(ctx context.Context, chatID uint, senderID, content string) (*models.MessageResponse, error)
	GetChatMessages(ctx context.Context, chatID uint, userID string) ([]models.MessageResponse, error)
}

type chatService struct {
	repo        postgres.ChatRepository
	store       *cache.Store
	messenger   GroupMessenger
	rebroadcast *Rebroadcaster
	events      EventPublisher
}

func NewChatService(
	repo postgres.ChatRepository,
	store *cache.Store,
	messenger GroupMessenger,
	rebroadcast *Rebroadcaster,
	events EventPublisher,
) ChatService {
	return &chatService{
		repo:        repo,
		store:       store,
		messenger:   messenger,
		rebroadcast: rebroadcast,
		events:      events,
	}
}

func (s *chatService) CheckChatExists(ctx context.Context, userA, userB string) (*models.ChatCheckResponse, error) {
	chat, err := s.repo.FindByParticipants(ctx, userA, userB)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ChatCheckResponse{Exists: false, ChatID: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chat lookup failed: %w", err)
	}
	return &models.ChatCheckResponse{Exists: true, ChatID: chat.ID}, nil
}

// CreateChat finds or creates the chat for the pair. Idempotent: a second
// call returns the existing chat and writes no new row. Only an actual
// creation invalidates the two participants' chat-list caches.
func (s *chatService) CreateChat(ctx context.Context, req *models.CreateChatRequest) (*models.ChatResponse, error) {
	if req.ClientID == "" || req.FreelancerID == "" {
		return nil, fmt.Errorf("%w: clientId and freelancerId are required", ErrValidation)
	}
	if req.ClientID == req.FreelancerID {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrValidation)
	}

	chat, err := s.repo.FindByParticipants(ctx, req.ClientID, req.FreelancerID)
	created := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		chat, err = s.repo.Create(ctx, req.ClientID, req.FreelancerID)
		created = true
	}
	if err != nil {
		return nil, fmt.Errorf("chat create failed: %w", err)
	}

	if created {
		s.store.Invalidate(ctx,
			cache.UserChatsKey(chat.ClientID),
			cache.UserChatsKey(chat.FreelancerID),
		)
	}

	full, err := s.repo.FindByID(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("chat reload failed: %w", err)
	}

	otherName := full.Freelancer.Name
	if req.ClientID != full.ClientID {
		otherName = full.Client.Name
	}

	return &models.ChatResponse{
		ChatID:        full.ID,
		ClientID:      full.ClientID,
		FreelancerID:  full.FreelancerID,
		StartedAt:     full.StartedAt,
		OtherUserName: otherName,
	}, nil
}

// GetUserChats resolves, per chat, the other participant and the most recent
// message preview. Cached per user with an absolute TTL; any new message or
// chat involving the user invalidates the entry.
func (s *chatService) GetUserChats(ctx context.Context, userID string) ([]models.ChatResponse, error) {
	return cache.ReadThrough(ctx, s.store, cache.UserChatsKey(userID), cache.Absolute(chatListTTL),
		func(ctx context.Context) ([]models.ChatResponse, error) {
			chats, err := s.repo.ListForUser(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("chat list failed: %w", err)
			}

			responses := make([]models.ChatResponse, 0, len(chats))
			for _, chat := range chats {
				other := chat.Freelancer
				if chat.ClientID != userID {
					other = chat.Client
				}

				resp := models.ChatResponse{
					ChatID:        chat.ID,
					ClientID:      chat.ClientID,
					FreelancerID:  chat.FreelancerID,
					StartedAt:     chat.StartedAt,
					OtherUserName: other.Name,
				}

				last, err := s.repo.LatestMessage(ctx, chat.ID)
				if err != nil {
					return nil, fmt.Errorf("latest message lookup failed: %w", err)
				}
				if last != nil {
					resp.LastMessage = &last.Content
					resp.LastMessageTime = &last.SentAt
					resp.IsLastMessageFromMe = last.SenderID == userID
				}

				responses = append(responses, resp)
			}
			return responses, nil
		})
}

// SendMessage persists the message, invalidates the chat's history cache,
// fans the message out to the chat's room and schedules the delayed
// re-broadcasts. The participant check runs against the persisted chat, not
// the live registry; a chat that does not exist fails the same way as a
// non-participant sender.
func (s *chatService) SendMessage(ctx context.Context, chatID uint, senderID, content string) (*models.MessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}

	chat, err := s.repo.FindByID(ctx, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user is not a participant in this chat", ErrNotAuthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("participant check failed: %w", err)
	}
	if !chat.IsParticipant(senderID) {
		return nil, fmt.Errorf("%w: user is not a participant in this chat", ErrNotAuthorized)
	}

	msg, err := s.repo.InsertMessage(ctx, chatID, senderID, content)
	if err != nil {
		return nil, fmt.Errorf("message persist failed: %w", err)
	}

	// The history cache and both participants' list previews are stale now.
	s.store.Invalidate(ctx,
		cache.ChatMessagesKey(chatID),
		cache.UserChatsKey(chat.ClientID),
		cache.UserChatsKey(chat.FreelancerID),
	)

	record := models.MessageRecord{
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		SentAt:    msg.SentAt,
	}

	s.broadcast(chatID, record)

	if s.events != nil {
		if err := s.events.MessageCreated(ctx, record); err != nil {
			slog.Error("message event publish failed", "chatID", chatID, "error", err)
		}
	}

	resp := record.View(senderID)
	return &resp, nil
}

// GetChatMessages returns the chat's history, oldest first. The cached value
// is viewer-agnostic and keyed by chat only; the per-viewer isFromMe flag is
// computed here, after retrieval, so one user's perspective never leaks into
// another's read.
func (s *chatService) GetChatMessages(ctx context.Context, chatID uint, userID string) ([]models.MessageResponse, error) {
	ok, err := s.repo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("participant check failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user is not a participant in this chat", ErrNotAuthorized)
	}

	records, err := cache.ReadThrough(ctx, s.store, cache.ChatMessagesKey(chatID), cache.Sliding(chatMessagesTTL),
		func(ctx context.Context) ([]models.MessageRecord, error) {
			messages, err := s.repo.ListMessages(ctx, chatID)
			if err != nil {
				return nil, fmt.Errorf("message list failed: %w", err)
			}
			records := make([]models.MessageRecord, 0, len(messages))
			for _, m := range messages {
				records = append(records, models.MessageRecord{
					MessageID: m.ID,
					ChatID:    m.ChatID,
					SenderID:  m.SenderID,
					Content:   m.Content,
					SentAt:    m.SentAt,
				})
			}
			return records, nil
		})
	if err != nil {
		return nil, err
	}

	responses := make([]models.MessageResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, r.View(userID))
	}
	return responses, nil
}

// broadcast sends the message to the chat's room immediately, then hands the
// identical payload to the rebroadcaster. Both are best-effort; a failure
// never reaches the sender.
func (s *chatService) broadcast(chatID uint, record models.MessageRecord) {
	if s.messenger == nil {
		return
	}

	roomID := strconv.FormatUint(uint64(chatID), 10)
	if err := s.messenger.SendToGroup(roomID, websocket.EventReceiveMessage, record); err != nil {
		slog.Error("message broadcast failed", "chatID", chatID, "error", err)
	}
	if s.rebroadcast != nil {
		s.rebroadcast.Schedule(roomID, websocket.EventReceiveMessage, record)
	}
}
