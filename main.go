package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gifchat/backend/chat"
	"github.com/gifchat/backend/config"
	"github.com/gifchat/backend/controllers"
	"github.com/gifchat/backend/database"
	"github.com/gifchat/backend/docs"
	"github.com/gifchat/backend/middleware"
	"github.com/gifchat/backend/realtime"
	"github.com/gifchat/backend/upload"
)

// @title           GIF Chat API
// @version         1.0
// @description     API Server for the GIF chat room application
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database connection established")

	// Upload store
	uploads, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up upload store")
	}

	// Realtime directory
	hub := realtime.NewHub()
	go hub.Run()

	service := chat.NewService(db, hub, cfg.RemoveDelay)

	roomController := controllers.NewRoomController(service)
	chatController := controllers.NewChatController(service, uploads)

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port

	// Set up router
	router := gin.Default()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(middleware.Sessions(cfg.Session.Secret))
	router.Use(middleware.DisplayColor())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Room routes
	router.GET("/", roomController.ListRooms)
	router.GET("/room", roomController.NewRoomForm)
	router.POST("/room", roomController.CreateRoom)
	router.GET("/room/:id", roomController.JoinRoom)
	router.DELETE("/room/:id", roomController.DeleteRoom)

	// Chat routes
	router.POST("/room/:id/chat", chatController.PostChat)
	router.POST("/room/:id/gif", chatController.PostGif)
	router.POST("/room/:id/sys", chatController.PostSystem)

	// Stored attachments
	router.Static("/uploads", uploads.Dir())

	// WebSocket route
	router.GET("/ws", hub.HandleConnection)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	service.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
