package main

import (
	"CareDesk/middleware"
	"CareDesk/models"
	"CareDesk/pkg/config"
	"CareDesk/routes"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB() (*gorm.DB, error) {
	if config.DatabaseDSN != "" {
		return gorm.Open(mysql.Open(config.DatabaseDSN), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(config.SQLitePath), &gorm.Config{})
}

// seedAdmin creates the first staff operator from env, if configured.
func seedAdmin(db *gorm.DB) {
	if config.AdminEmail == "" || config.AdminPassword == "" {
		return
	}
	var existing models.User
	if err := db.Where("email = ?", config.AdminEmail).First(&existing).Error; err == nil {
		return
	}
	admin := models.User{
		Email:    config.AdminEmail,
		Username: config.AdminUsername,
		Role:     models.RoleAdmin,
	}
	if err := admin.SetPassword(config.AdminPassword); err != nil {
		log.Printf("[seed] admin password: %v", err)
		return
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("[seed] create admin: %v", err)
		return
	}
	log.Printf("[seed] staff account %s created", admin.Email)
}

func main() {
	db, err := openDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	seedAdmin(db)

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
	)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db)
	r.Run(":" + config.Port)
}
