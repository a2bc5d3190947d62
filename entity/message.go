package entity

import "time"

// Message kinds. System and AI messages carry an empty SenderID and are never
// attributable to either participant.
const (
	MessageText   = "text"
	MessageSystem = "system"
	MessageAI     = "ai"
)

// Message is one entry in a relationship's append-only conversation, ordered
// by (created_at, id).
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RelationshipID string    `json:"relationship_id" gorm:"index;size:64"`
	SenderID       string    `json:"sender_id" gorm:"index;size:64"`
	Body           string    `json:"body" gorm:"type:text"`
	Kind           string    `json:"kind" gorm:"size:16"`
	CreatedAt      time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessageResponse carries the stored message, a fresh relationship
// snapshot, and an optional advisory coaching tip. The tip is transient: it
// is never stored as a Message.
type SendMessageResponse struct {
	Message      Message          `json:"message"`
	Relationship RelationshipView `json:"relationship"`
	CoachingTip  string           `json:"coaching_tip,omitempty"`
}

// MessageListResponse pairs the ordered message list with an embedded
// relationship snapshot so one poll serves both concerns.
type MessageListResponse struct {
	Messages     []Message        `json:"messages"`
	Relationship RelationshipView `json:"relationship"`
}
