package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"order-processing-backend/internal/client"
	"order-processing-backend/internal/config"
	handler "order-processing-backend/internal/handlers"
	"order-processing-backend/internal/repository"
	"order-processing-backend/internal/services/artifact"
	"order-processing-backend/internal/services/orchestrator"
)

// RegisterRoutes wires repositories, the remote processing client, and the
// session manager into the HTTP surface. A nil db runs everything in memory.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, logger *slog.Logger) {
	var queueRepo *repository.QueueRepository
	var sessionRepo *repository.SessionRepository
	if db != nil {
		queueRepo = repository.NewQueueRepository(db)
		sessionRepo = repository.NewSessionRepository(db)
	}

	queue := orchestrator.NewQueueStore(queueRepo, logger)
	if err := queue.Load(); err != nil {
		logger.Warn("queue reload from database failed, starting empty", "error", err)
	}

	processor := client.NewProcessor(cfg.ProcessorURL, cfg.ProcessorTimeout, logger)
	store := client.NewArtifactStore(cfg.ArtifactStoreURL, cfg.ProcessorTimeout)
	codec := artifact.NewCodec(store)

	manager := orchestrator.NewManager(queue, processor, sessionRepo, cfg.DedupeHybridVINs, logger)

	orderHandler := handler.NewOrderHandler(manager, codec, sessionRepo, logger)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Queue routes
	queueGroup := api.Group("/queue")
	queueGroup.POST("", orderHandler.Enqueue)
	queueGroup.GET("", orderHandler.ListQueue)
	queueGroup.DELETE("/:dealershipId", orderHandler.RemoveQueueItem)
	queueGroup.PATCH("/:dealershipId", orderHandler.UpdateQueueItem)

	// Session routes
	sessions := api.Group("/sessions")
	sessions.POST("", orderHandler.StartSession)
	sessions.GET("", orderHandler.ListSessions)
	sessions.GET("/:id", orderHandler.GetSession)
	sessions.GET("/:id/events", orderHandler.GetSessionEvents)
	sessions.POST("/:id/manual", orderHandler.SubmitManual)
	sessions.POST("/:id/finalize", orderHandler.Finalize)
	sessions.POST("/:id/cancel", orderHandler.CancelSession)

	// Artifact routes
	sessions.GET("/:id/artifact", orderHandler.GetArtifact)
	sessions.POST("/:id/artifact/edit", orderHandler.EditArtifact)
	sessions.POST("/:id/artifact/save", orderHandler.SaveArtifact)
}
