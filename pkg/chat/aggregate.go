package chat

import (
	"sort"

	"CareDesk/models"
)

// Aggregate groups messages by conversation id and derives one
// Conversation entry per group, sorted most recently active first.
//
// Per group:
//   - last message fields come from the newest message (creation time,
//     row id as tiebreaker)
//   - the surfaced name/role belong to the newest NON-staff sender; a
//     conversation where only staff have spoken falls back to
//     "Unknown Guest"/guest
//   - unread counts only unseen non-staff messages
func Aggregate(msgs []models.Message) []models.Conversation {
	groups := make(map[string][]models.Message)
	for _, m := range msgs {
		groups[m.ConversationID] = append(groups[m.ConversationID], m)
	}

	convs := make([]models.Conversation, 0, len(groups))
	for id, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].ID < group[j].ID
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})

		last := group[len(group)-1]
		conv := models.Conversation{
			ConversationID: id,
			LastMessage:    last.Content,
			LastMessageAt:  last.CreatedAt,
			DisplayName:    models.UnknownGuestName,
			Role:           models.RoleGuest,
		}

		// newest non-staff sender names the conversation
		for i := len(group) - 1; i >= 0; i-- {
			if group[i].SenderRole != models.RoleAdmin {
				conv.DisplayName = group[i].SenderName
				conv.Role = group[i].SenderRole
				break
			}
		}

		for _, m := range group {
			if !m.IsRead && m.SenderRole != models.RoleAdmin {
				conv.UnreadCount++
			}
		}

		convs = append(convs, conv)
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[j].LastMessageAt.Before(convs[i].LastMessageAt)
	})
	return convs
}
