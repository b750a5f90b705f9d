package main // Entry point package

import (
	"context" // Context for migrations and background workers
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/study-room-reservation/internal/config"      // Internal config loader
	"github.com/iliyamo/study-room-reservation/internal/database"    // MySQL connection pool
	"github.com/iliyamo/study-room-reservation/internal/handler"     // HTTP handlers
	"github.com/iliyamo/study-room-reservation/internal/middleware"  // Rate limiting and response cache
	"github.com/iliyamo/study-room-reservation/internal/migrate"     // Embedded schema migrations
	"github.com/iliyamo/study-room-reservation/internal/notify"      // Engine event dispatcher
	"github.com/iliyamo/study-room-reservation/internal/queue"       // RabbitMQ booking consumer
	"github.com/iliyamo/study-room-reservation/internal/repository"  // User and token repositories
	"github.com/iliyamo/study-room-reservation/internal/router"      // Internal router setup
	"github.com/iliyamo/study-room-reservation/internal/service"     // Booking engine
	"github.com/iliyamo/study-room-reservation/internal/store/mysql" // MySQL-backed store
	"github.com/iliyamo/study-room-reservation/internal/sweeper"     // Background expiry sweeper
)

func main() {
	_ = godotenv.Load() // Load .env when present; real environment variables win

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // Open the MySQL pool
	if err != nil {
		log.Fatalf("db: %v", err) // Abort startup when the database is unreachable
	}
	if err := migrate.Up(context.Background(), db); err != nil { // Apply pending schema migrations
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient() // Redis client; nil when Redis is unreachable

	st := mysql.New(db) // Store implementation backed by MySQL
	engine := service.New(st, service.Options{ // Booking engine with the configured windows
		HoldTTL:       cfg.HoldTTL,
		BookingWindow: cfg.BookingWindow,
		OfferWindow:   cfg.OfferWindow,
	})
	events := notify.New(st, rdb) // Fan-out for engine events (inbox rows, Redis, RabbitMQ)

	userRepo := repository.NewUserRepo(db)   // Account persistence
	tokenRepo := repository.NewTokenRepo(db) // Refresh token persistence

	go func() { // RabbitMQ consumer appends confirmed bookings to the audit log
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("queue consumer: %v", err)
		}
	}()

	if cfg.SweepInterval > 0 { // Optional background expiry sweep; readers repair lazily either way
		sw := &sweeper.Sweeper{Engine: engine, Events: events, Interval: cfg.SweepInterval}
		go func() {
			if err := sw.Run(context.Background()); err != nil && err != context.Canceled {
				log.Printf("sweeper: %v", err)
			}
		}()
	}

	e := echo.New()                      // Create Echo instance
	e.Validator = handler.NewValidator() // Struct validation for request bodies
	if rdb != nil {                      // Redis-backed middlewares run only when Redis is up
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)) // Per-user rate limiting
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))      // Response cache for idempotent reads
	}

	auth := handler.NewAuthHandler(cfg, userRepo, tokenRepo)          // Auth endpoints
	student := handler.NewStudentHandler(engine, st, events)          // Hold, booking and waitlist endpoints
	owner := handler.NewOwnerHandler(engine, st, events)              // Venue and cabin management endpoints
	public := &handler.PublicHandler{Store: st, Engine: engine, Events: events} // Unauthenticated browse endpoints
	inbox := handler.NewNotificationHandler(st)                       // In-app notification endpoints

	router.RegisterRoutes(e)                              // Health check
	router.RegisterAuth(e, auth, cfg.JWTSecret)           // Register, login, refresh, logout, me
	router.RegisterPublic(e, public)                      // Guest browsing
	router.RegisterStudent(e, student, cfg.JWTSecret)     // STUDENT-scoped routes
	router.RegisterOwner(e, owner, cfg.JWTSecret)         // OWNER-scoped routes
	router.RegisterNotifications(e, inbox, cfg.JWTSecret) // Notification inbox for both roles

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
