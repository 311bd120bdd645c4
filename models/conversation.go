package models

import "time"

// Conversation is a derived view over messages sharing one conversation id.
// It is never persisted: a conversation exists exactly while at least one
// message with its id exists, and is recomputed from the messages table on
// every listing.
//
// DisplayName and Role identify the non-staff participant; when every
// message in the group was sent by staff there is nobody to name and the
// aggregator falls back to UnknownGuestName/RoleGuest.
type Conversation struct {
	ConversationID string    `json:"conversationId"`
	LastMessage    string    `json:"lastMessage"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
	DisplayName    string    `json:"displayName"`
	Role           string    `json:"role"`
	UnreadCount    int       `json:"unreadCount"`
}

// UnknownGuestName names a conversation where only staff have spoken,
// e.g. staff-initiated outreach with no reply yet.
const UnknownGuestName = "Unknown Guest"
