package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Chat links one client and one freelancer. There is at most one active chat
// per unordered pair of participants; lookups treat (A,B) and (B,A) the same.
type Chat struct {
	ID           uint           `gorm:"primaryKey" json:"chatId"`
	ClientID     string         `gorm:"not null;type:uuid;index" json:"clientId"`
	FreelancerID string         `gorm:"not null;type:uuid;index" json:"freelancerId"`
	StartedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"startedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Client     User      `gorm:"foreignKey:ClientID;references:ID" json:"-"`
	Freelancer User      `gorm:"foreignKey:FreelancerID;references:ID" json:"-"`
	Messages   []Message `gorm:"foreignKey:ChatID" json:"-"`
}

// Message is a single chat entry, ordered by SentAt for history reads.
type Message struct {
	ID        uint           `gorm:"primaryKey" json:"messageId"`
	ChatID    uint           `gorm:"not null;index" json:"chatId"`
	SenderID  string         `gorm:"not null;type:uuid" json:"senderId"`
	Content   string         `gorm:"not null" json:"content"`
	SentAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"sentAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsParticipant reports whether userID sits on either side of the chat.
func (c *Chat) IsParticipant(userID string) bool {
	return c.ClientID == userID || c.FreelancerID == userID
}

// OtherParticipant returns the participant opposite to userID.
func (c *Chat) OtherParticipant(userID string) string {
	if c.ClientID == userID {
		return c.FreelancerID
	}
	return c.ClientID
}

/** -------------------- DTOs -------------------- */
// Request
type CreateChatRequest struct {
	ClientID     string `json:"clientId" binding:"required"`
	FreelancerID string `json:"freelancerId" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Response
type ChatCheckResponse struct {
	Exists bool `json:"exists"`
	ChatID uint `json:"chatId"`
}

type ChatResponse struct {
	ChatID              uint       `json:"chatId"`
	ClientID            string     `json:"clientId"`
	FreelancerID        string     `json:"freelancerId"`
	StartedAt           time.Time  `json:"startedAt"`
	OtherUserName       string     `json:"otherUserName"`
	LastMessage         *string    `json:"lastMessage"`
	LastMessageTime     *time.Time `json:"lastMessageTime"`
	IsLastMessageFromMe bool       `json:"isLastMessageFromMe"`
}

// MessageRecord is the viewer-agnostic shape stored in the message cache.
// Viewer-relative fields live on MessageResponse and are computed at read
// time, never persisted into the cache.
type MessageRecord struct {
	MessageID uint      `json:"messageId"`
	ChatID    uint      `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

type MessageResponse struct {
	MessageID uint      `json:"messageId"`
	ChatID    uint      `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
	IsFromMe  bool      `json:"isFromMe"`
}

// View converts a cached record into the per-viewer response shape.
func (m MessageRecord) View(viewerID string) MessageResponse {
	return MessageResponse{
		MessageID: m.MessageID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		SentAt:    m.SentAt,
		IsFromMe:  m.SenderID == viewerID,
	}
}
