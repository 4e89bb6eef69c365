package postgres

import (
	"context"
	"errors"
	"time"

	"marketplace-chat/internal/models"

	"gorm.io/gorm"
)

// ChatRepository is the persistence surface for chats and messages. All
// participant lookups are symmetric: (A,B) and (B,A) resolve to the same
// chat row.
type ChatRepository interface {
	ChatExists(ctx context.Context, userA, userB string) (bool, error)
	FindByParticipants(ctx context.Context, userA, userB string) (*models.Chat, error)
	FindByID(ctx context.Context, chatID uint) (*models.Chat, error)
	Create(ctx context.Context, clientID, freelancerID string) (*models.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]models.Chat, error)
	LatestMessage(ctx context.Context, chatID uint) (*models.Message, error)
	InsertMessage(ctx context.Context, chatID uint, senderID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uint) ([]models.Message, error)
	IsParticipant(ctx context.Context, chatID uint, userID string) (bool, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func pairCondition(db *gorm.DB, userA, userB string) *gorm.DB {
	return db.Where(
		"(client_id = ? AND freelancer_id = ?) OR (client_id = ? AND freelancer_id = ?)",
		userA, userB, userB, userA,
	)
}

func (r *chatRepository) ChatExists(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := pairCondition(r.db.WithContext(ctx).Model(&models.Chat{}), userA, userB).
		Count(&count).Error
	return count > 0, err
}

func (r *chatRepository) FindByParticipants(ctx context.Context, userA, userB string) (*models.Chat, error) {
	var chat models.Chat
	err := pairCondition(r.db.WithContext(ctx), userA, userB).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindByID(ctx context.Context, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Freelancer").
		First(&chat, "id = ?", chatID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) Create(ctx context.Context, clientID, freelancerID string) (*models.Chat, error) {
	chat := &models.Chat{
		ClientID:     clientID,
		FreelancerID: freelancerID,
		StartedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) ListForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Where("client_id = ? OR freelancer_id = ?", userID, userID).
		Preload("Client").
		Preload("Freelancer").
		Order("started_at DESC").
		Find(&chats).Error
	return chats, err
}

func (r *chatRepository) LatestMessage(ctx context.Context, chatID uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("sent_at DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) InsertMessage(ctx context.Context, chatID uint, senderID, content string) (*models.Message, error) {
	msg := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		SentAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("sent_at ASC").
		Find(&messages).Error
	return messages, err
}

// IsParticipant reports false for chats that do not exist; callers treat the
// two cases identically.
func (r *chatRepository) IsParticipant(ctx context.Context, chatID uint, userID string) (bool, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return chat.IsParticipant(userID), nil
}
