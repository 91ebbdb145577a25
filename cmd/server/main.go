package main // Entry point for the booking API server

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/atharvamit-2203/campus-room-booking/internal/config"
	"github.com/atharvamit-2203/campus-room-booking/internal/database"
	"github.com/atharvamit-2203/campus-room-booking/internal/handler"
	"github.com/atharvamit-2203/campus-room-booking/internal/middleware"
	"github.com/atharvamit-2203/campus-room-booking/internal/repository"
	"github.com/atharvamit-2203/campus-room-booking/internal/router"
	"github.com/atharvamit-2203/campus-room-booking/internal/service"
)

func main() {
	// Load .env for local development; in real deployments the variables
	// come from the environment and the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	roomRepo := repository.NewRoomRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	bookingSvc := service.NewBookingService(roomRepo, reservationRepo, cfg.Booking, service.PublishBookingEvent)

	roomHandler := handler.NewRoomHandler(roomRepo, reservationRepo, cfg.Booking)
	bookingHandler := handler.NewBookingHandler(bookingSvc, reservationRepo)

	// Redis is optional: a nil client turns the cache and the rate
	// limiter into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterBooking(e, roomHandler, bookingHandler, cfg.JWTSecret, cacheMW, rateMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
