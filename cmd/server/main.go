package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avolkov/event-seat-booking/internal/config"
	"github.com/avolkov/event-seat-booking/internal/database"
	"github.com/avolkov/event-seat-booking/internal/engine"
	"github.com/avolkov/event-seat-booking/internal/handler"
	"github.com/avolkov/event-seat-booking/internal/middleware"
	"github.com/avolkov/event-seat-booking/internal/queue"
	"github.com/avolkov/event-seat-booking/internal/repository"
	"github.com/avolkov/event-seat-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	holdRepo := repository.NewHoldRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	priceRepo := repository.NewPriceRepo(db)
	eventRepo := repository.NewEventRepo(db)
	venueRepo := repository.NewVenueRepo(db)
	seatRepo := repository.NewSeatRepo(db)

	eng := engine.New(db, holdRepo, bookingRepo, priceRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background reclamation of expired holds; the hold path also reclaims
	// lazily, so a stopped sweeper degrades latency, not correctness.
	sweeper := engine.NewSweeper(holdRepo, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// Consumer of booking.confirmed events; reconnects on its own.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer: %v", err)
		}
	}()

	// Redis is optional: with no client, caching and rate limiting
	// degrade to pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.Validator = handler.NewValidator()

	router.RegisterRoutes(e)
	router.RegisterCatalog(e, handler.NewCatalogHandler(eventRepo, venueRepo, seatRepo), cacheMW)
	router.RegisterBooking(e, handler.NewBookingHandler(eng, bookingRepo), middleware.JWTAuth(cfg.JWTSecret), rateMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
