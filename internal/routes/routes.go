package routes

import (
	"time"

	"github.com/beatforge/beatforge-backend/internal/config"
	"github.com/beatforge/beatforge-backend/internal/handlers"
	"github.com/beatforge/beatforge-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	beatHandler *handlers.BeatHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/health", healthHandler.Check)

	// Auth — public routes get a stricter rate limit: 10 req/min per IP
	auth := app.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh-token", authHandler.Refresh)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/check-email", authHandler.CheckEmail)

	// Protected auth routes skip the public limiter group on purpose.
	app.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	app.Get("/auth/user", middleware.JWTProtected(cfg), authHandler.GetUser)
	app.Post("/auth/change-password", middleware.JWTProtected(cfg), authHandler.ChangePassword)

	// Beats — all protected; 60 req/min per IP
	beats := app.Group("/beats", middleware.JWTProtected(cfg))
	beats.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	beats.Post("/create-by-genre", beatHandler.CreateByGenre)
	beats.Get("/list", beatHandler.List)
	beats.Get("/genres", beatHandler.Genres)
	beats.Get("/update-beats", beatHandler.UpdateBeats)
}
