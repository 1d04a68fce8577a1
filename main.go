package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"rsvp-service/internal/admin/admin_api"
	"rsvp-service/internal/analytics"
	"rsvp-service/internal/auth"
	"rsvp-service/internal/config"
	"rsvp-service/internal/database/migrations"
	"rsvp-service/internal/guests"
	guestdb "rsvp-service/internal/guests/db"
	"rsvp-service/internal/kafka"
	"rsvp-service/internal/logger"
	"rsvp-service/internal/notify"
	"rsvp-service/internal/rsvp"
	rsvpdb "rsvp-service/internal/rsvp/db"
	"rsvp-service/internal/rsvp/rsvp_api"
)

func connectDatabase(dsn string, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("CACHE", "Redis disabled, guest lookups go straight to the database")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("CACHE", fmt.Sprintf("Redis unavailable at %s, continuing without cache: %v", cfg.Addr, err))
		return nil
	}
	log.Info("CACHE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return client
}

func buildEventPublisher(cfg config.KafkaConfig, log *logger.Logger) rsvp.EventPublisher {
	if !cfg.Enabled {
		log.Info("KAFKA", "Event publishing disabled")
		return nil
	}
	if cfg.MockMode {
		log.Info("KAFKA", "Mock mode enabled, events are logged only")
		return &kafka.MockProducer{Logger: log}
	}
	if err := kafka.EnsureTopicExists(cfg.Brokers, cfg.Topic); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	log.Info("KAFKA", fmt.Sprintf("Producer initialized for topic %s", cfg.Topic))
	return kafka.NewProducer(cfg.Brokers, cfg.Topic, log)
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting RSVP service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectDatabase(cfg.Database.DSN, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: "./migrations",
			AutoMigrate:   true,
		})
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	guestCache := guests.NewCache(redisClient, cfg.Redis.TTL, log)
	guestService := guests.NewGuestService(&guestdb.DB{Bun: bunDB}, guestCache)

	mailer := notify.NewMailer(cfg.Email)
	if mailer.Enabled() {
		log.Info("MAIL", fmt.Sprintf("Host notifications go to %s", cfg.Email.HostEmail))
	} else {
		log.Warn("MAIL", "SMTP not configured, host notifications disabled")
	}

	events := buildEventPublisher(cfg.Kafka, log)

	rsvpService := rsvp.NewRSVPService(
		&rsvpdb.DB{Bun: bunDB},
		guestService,
		mailer,
		events,
		log,
		cfg.App.DirectoryEnforced,
	)
	rsvpService.MaxAttendees = cfg.App.MaxAttendees

	analyticsService := analytics.NewService(bunDB)

	publicHandler := rsvp_api.NewHandler(rsvpService, guestService, log, cfg.App.DirectoryEnforced, cfg.App.MaxAttendees)
	adminHandler := admin_api.NewHandler(guestService, rsvpService, analyticsService, log, cfg.App.InviteURL)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// Requests without an Origin header (curl, server-to-server) pass through
	// untouched; browsers are held to the allow-list.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Admin-Key"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", publicHandler.Health)
		r.Post("/check-guest", publicHandler.CheckGuest)
		r.Post("/submit-rsvp", publicHandler.SubmitRSVP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminOnly(cfg.Admin.Key, log))
			adminHandler.RegisterRoutes(r)
		})
	})
	log.Info("ROUTER", "Public routes registered under /api, admin routes under /api/admin")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 RSVP service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ RSVP service shutdown complete")
	}
}
