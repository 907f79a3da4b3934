package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/teammanda/manda-api/internal/config"
	"github.com/teammanda/manda-api/internal/database"
	"github.com/teammanda/manda-api/internal/handlers"
	"github.com/teammanda/manda-api/internal/middleware"
	"github.com/teammanda/manda-api/internal/services"
	"github.com/teammanda/manda-api/internal/types"

	_ "github.com/teammanda/manda-api/docs/api" // Swagger docs
)

// @title Manda API
// @version 1.0.0
// @description Mandalart goal sharing service with a personalized feed
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/teammanda/manda-api

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("manda-api")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	dispatcher := services.NewDispatcher(db)

	// Create handlers
	healthHandler := &handlers.HealthHandler{DB: db, Cfg: cfg}
	feedHandler := &handlers.FeedHandler{DB: db, Cfg: cfg, Dispatcher: dispatcher}
	goalHandler := &handlers.GoalHandler{DB: db, Cfg: cfg}
	socialHandler := &handlers.SocialHandler{DB: db, Dispatcher: dispatcher}
	notificationHandler := &handlers.NotificationHandler{DB: db}
	userHandler := &handlers.UserHandler{DB: db}

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	api.Get("/health", healthHandler.Health)

	auth := middleware.AuthUser(db)

	// Feed routes
	api.Get("/feeds/recommend", auth, feedHandler.RecommendFeeds)
	api.Get("/feeds/user/:userID", auth, feedHandler.UserFeeds)
	api.Get("/feeds/log/:userID", auth, feedHandler.FeedLog)
	api.Post("/feeds", auth, feedHandler.CreateFeed)
	api.Patch("/feeds/:feedID", auth, feedHandler.UpdateFeed)
	api.Delete("/feeds/:feedID", auth, feedHandler.DeleteFeed)

	// Comment and reaction routes
	api.Post("/feeds/:feedID/comments", auth, feedHandler.AddComment)
	api.Patch("/feeds/:feedID/comments/:commentID", auth, feedHandler.UpdateComment)
	api.Delete("/feeds/:feedID/comments/:commentID", auth, feedHandler.DeleteComment)
	api.Post("/feeds/:feedID/reactions", auth, feedHandler.AddReaction)
	api.Delete("/feeds/:feedID/reactions/:emoji", auth, feedHandler.RemoveReaction)

	// Report routes
	api.Post("/feeds/:feedID/report", auth, feedHandler.ReportFeed)
	api.Post("/comments/:commentID/report", auth, feedHandler.ReportComment)

	// Social routes
	api.Post("/users/:userID/follow", auth, socialHandler.Follow)
	api.Delete("/users/:userID/follow", auth, socialHandler.Unfollow)
	api.Post("/users/:userID/block", auth, socialHandler.Block)
	api.Delete("/users/:userID/block", auth, socialHandler.Unblock)
	api.Get("/users/:userID/followers", auth, socialHandler.Followers)
	api.Get("/users/:userID/following", auth, socialHandler.Following)

	// User routes
	api.Get("/users/:userID/profile", auth, userHandler.GetProfile)
	api.Patch("/users/profile", auth, userHandler.UpdateProfile)
	api.Delete("/users/me", auth, userHandler.Deactivate)

	// Goal routes. Fixed segments before :goalID so they never shadow.
	api.Get("/goals/search", auth, goalHandler.SearchGoals)
	api.Post("/goals/recommend", auth, goalHandler.RecommendGoals)
	api.Post("/goals/subs", auth, goalHandler.UpdateSubGoals)
	api.Post("/goals/actions", auth, goalHandler.UpdateActionItems)
	api.Get("/goals/user/:userID", auth, goalHandler.ListGoals)
	api.Post("/goals", auth, goalHandler.CreateGoal)
	api.Get("/goals/:goalID", auth, goalHandler.GetGoal)
	api.Patch("/goals/:goalID", auth, goalHandler.UpdateGoal)
	api.Delete("/goals/:goalID", auth, goalHandler.DeleteGoal)

	// Notification routes
	api.Get("/notifications", auth, notificationHandler.List)
	api.Patch("/notifications/:notiID/read", auth, notificationHandler.MarkRead)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Initialize Authorizer
	if err := services.InitAuthorizer(cfg, "http", "localhost:"+cfg.Port); err != nil {
		log.Printf("Authorizer init deferred: %v", err)
	}

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
