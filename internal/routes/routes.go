package routes

import (
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/handlers"
	"github.com/campuscare/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	statsHandler *handlers.StatsHandler,
	aiHandler *handlers.AIHandler,
	chatHandler *handlers.ChatHandler,
) {
	// Uploaded report photos are served statically.
	app.Static("/uploads", cfg.UploadsDir)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", handlers.Health)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/google", authHandler.GoogleSignIn)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected auth routes live outside the 10/min group so the JWT
	// middleware never touches the public ones.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), authHandler.Me)

	jwt := middleware.JWTProtected(cfg)
	adminOnly := middleware.AdminRequired(db, cfg)

	// Reports. The static segment must register before the :id routes.
	api.Post("/reports", jwt, reportHandler.Create)
	api.Get("/reports/my-reports", jwt, reportHandler.MyReports)
	api.Get("/reports", jwt, adminOnly, reportHandler.List)
	api.Get("/reports/:id", jwt, reportHandler.Get)
	api.Put("/reports/:id", jwt, reportHandler.Update)
	api.Delete("/reports/:id", jwt, reportHandler.Delete)
	api.Patch("/reports/:id/status", jwt, adminOnly, reportHandler.UpdateStatus)
	api.Get("/reports/:id/comments", jwt, reportHandler.ListComments)
	api.Post("/reports/:id/comments", jwt, adminOnly, reportHandler.AddComment)
	api.Post("/reports/:id/feedback", jwt, reportHandler.Feedback)
	api.Post("/reports/:id/analyze", jwt, reportHandler.Analyze)

	// Statistics (scope=global is gated inside the handler)
	stats := api.Group("/stats", jwt)
	stats.Get("/summary", statsHandler.Summary)
	stats.Get("/distribution", statsHandler.Distribution)
	stats.Get("/trend", statsHandler.Trend)
	stats.Get("/performance", statsHandler.Performance)
	stats.Get("/contributors", adminOnly, statsHandler.Contributors)

	// AI assist (protected)
	ai := api.Group("/ai", jwt)
	ai.Post("/describe-image", aiHandler.DescribeImage)
	ai.Post("/detect-damage", aiHandler.DetectDamage)
	api.Post("/chatbot/chat", jwt, aiHandler.Chatbot)

	// Support chat — user side (protected); delivery is pull-based.
	chat := api.Group("/chat", jwt)
	chat.Get("/thread", chatHandler.Thread)
	chat.Post("/messages", chatHandler.SendMessage)
	chat.Get("/messages", chatHandler.NewMessages)

	// Admin chat panel
	admin := api.Group("/admin", jwt, adminOnly)
	admin.Get("/chat/threads", chatHandler.ListThreads)
	admin.Get("/chat/threads/:id", chatHandler.GetThread)
	admin.Post("/chat/threads/:id/messages", chatHandler.SendAdminMessage)
	admin.Patch("/chat/threads/:id/status", chatHandler.UpdateThreadStatus)
}
