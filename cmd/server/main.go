package main

import (
	"log"
	"time"

	"order-processing-backend/internal/config"
	"order-processing-backend/internal/models"
	"order-processing-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.Load()
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		log.Fatal(err)
	}

	db.AutoMigrate(
		&models.QueueItem{},
		&models.Session{},
		&models.OutcomeRecord{},
		&models.OrderAuditLog{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg, logger)

	logger.Info("order processing backend listening", "addr", cfg.ListenAddr)
	r.Run(cfg.ListenAddr)
}
