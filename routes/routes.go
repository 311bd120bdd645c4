package routes

import (
	"CareDesk/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "CareDesk/routes/auth"
	chatRoutes "CareDesk/routes/chat"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	// every request gets a resolved identity: guest, member, or admin
	r.Use(middleware.Identity())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "CareDesk support chat running"})
	})

	authRoutes.RegisterPublic(r, db)
	chatRoutes.Register(r, db)

	protected := r.Group("/")
	protected.Use(middleware.RequireAuth())
	authRoutes.RegisterProtected(protected, db)

	staff := r.Group("/")
	staff.Use(middleware.RequireStaff())
	chatRoutes.RegisterStaff(staff, db)
}
