package models

import "time"

// Sender roles. The effective role on a stored message is derived
// server-side from the request identity, never from the request body.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleGuest  = "guest"
)

// DefaultSenderName is used when a sender does not provide a display name.
const DefaultSenderName = "Guest"

// Message is the append-only unit of a support conversation. Rows are
// never updated after creation except for the IsRead flag, which staff
// flip once they have seen a conversation.
type Message struct {
	ID             uint      `json:"_id" gorm:"primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"size:64;index;not null"`
	SenderID       string    `json:"senderId,omitempty" gorm:"size:64"`
	SenderRole     string    `json:"senderRole" gorm:"size:20;not null"`
	SenderName     string    `json:"senderName" gorm:"size:120;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsRead         bool      `json:"isRead" gorm:"default:false"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
}

// ValidRole reports whether role is one of the three sender roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember || role == RoleGuest
}
