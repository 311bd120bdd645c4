// Package chat holds the support-chat core: store operations over the
// messages table and the derived conversation aggregation used by the
// staff dashboard.
package chat

import (
	"errors"
	"strings"

	"CareDesk/models"

	"gorm.io/gorm"
)

// ErrMissingConversation is returned when a store operation is called
// without a conversation id.
var ErrMissingConversation = errors.New("conversation id is required")

// ListMessages returns the messages of one conversation oldest first.
// Ordering is by creation time with the row id as tiebreaker, so
// same-tick messages keep insertion order. A conversation with no
// messages yields an empty slice, not an error.
func ListMessages(db *gorm.DB, conversationID string) ([]models.Message, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrMissingConversation
	}
	msgs := make([]models.Message, 0)
	err := db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// Append inserts a message. Messages are append-only: nothing in this
// package ever rewrites Content, SenderName, or CreatedAt after this.
func Append(db *gorm.DB, msg *models.Message) error {
	if strings.TrimSpace(msg.ConversationID) == "" {
		return ErrMissingConversation
	}
	return db.Create(msg).Error
}

// ListAll loads every message in creation order, for aggregation.
func ListAll(db *gorm.DB) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	err := db.Order("created_at ASC, id ASC").Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkConversationRead flips IsRead on every non-staff message of the
// conversation and returns how many rows changed. Staff messages never
// count toward unread, so they are left alone.
func MarkConversationRead(db *gorm.DB, conversationID string) (int64, error) {
	if strings.TrimSpace(conversationID) == "" {
		return 0, ErrMissingConversation
	}
	res := db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_role <> ? AND is_read = ?",
			conversationID, models.RoleAdmin, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// ListConversations builds the derived conversation list from the full
// message table. Read-only; concurrent appends may or may not show up,
// which is fine, the next call sees them.
func ListConversations(db *gorm.DB) ([]models.Conversation, error) {
	msgs, err := ListAll(db)
	if err != nil {
		return nil, err
	}
	return Aggregate(msgs), nil
}
