package chat

import (
	"CareDesk/controllers"
	"CareDesk/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers the public chat routes. Guests poll and post their
// own conversation; rate limiting guards the write path.
func Register(r *gin.Engine, db *gorm.DB) {
	r.GET("/messages", controllers.ListMessages(db))
	r.POST("/messages", middleware.RateLimit(), controllers.AppendMessage(db))
}

// RegisterStaff registers the staff dashboard routes.
func RegisterStaff(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/conversations", controllers.ListConversations(db))
	g.POST("/conversations/:conversation_id/read", controllers.MarkConversationRead(db))
}
