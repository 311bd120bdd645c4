package controllers

import (
	"CareDesk/middleware"
	"CareDesk/models"
	"CareDesk/pkg/chat"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListMessages returns one conversation's messages oldest first.
// GET /messages?conversationId=<id>
func ListMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := strings.TrimSpace(c.Query("conversationId"))
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "conversationId is required"})
			return
		}

		msgs, err := chat.ListMessages(db, conversationID)
		if err != nil {
			log.Printf("[chat] list messages %s: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to load messages"})
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

// AppendMessage stores a new chat message.
// POST /messages
//
// conversationId, senderRole, and content are required; senderName
// defaults to "Guest". The stored role and sender id come from the
// request identity, not from the body: anonymous callers are stored as
// guest whatever they claim, member sessions as member, staff as admin.
func AppendMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ConversationID string `json:"conversationId"`
			SenderRole     string `json:"senderRole"`
			SenderName     string `json:"senderName"`
			Content        string `json:"content"`
			SenderID       string `json:"senderId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		conversationID := strings.TrimSpace(body.ConversationID)
		content := strings.TrimSpace(body.Content)
		declaredRole := strings.TrimSpace(body.SenderRole)

		if conversationID == "" || declaredRole == "" || content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "conversationId, senderRole and content are required"})
			return
		}
		if !models.ValidRole(declaredRole) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "unknown senderRole"})
			return
		}

		name := strings.TrimSpace(body.SenderName)
		if name == "" {
			name = models.DefaultSenderName
		}

		msg := models.Message{
			ConversationID: conversationID,
			SenderID:       middleware.ResolvedUserID(c),
			SenderRole:     middleware.ResolvedRole(c),
			SenderName:     name,
			Content:        content,
			CreatedAt:      time.Now(),
		}
		if err := chat.Append(db, &msg); err != nil {
			log.Printf("[chat] append to %s: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to save message"})
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

// ListConversations returns the staff dashboard's conversation list,
// most recently active first.
// GET /conversations (staff only)
func ListConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		convs, err := chat.ListConversations(db)
		if err != nil {
			log.Printf("[chat] list conversations: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to load conversations"})
			return
		}
		c.JSON(http.StatusOK, convs)
	}
}

// MarkConversationRead flips every unseen visitor message of the
// conversation to read.
// POST /conversations/:conversation_id/read (staff only)
func MarkConversationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := strings.TrimSpace(c.Param("conversation_id"))
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "conversationId is required"})
			return
		}

		n, err := chat.MarkConversationRead(db, conversationID)
		if err != nil {
			log.Printf("[chat] mark read %s: %v", conversationID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to mark conversation read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversationId": conversationID, "updated": n})
	}
}
