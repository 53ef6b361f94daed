package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/booking"
	"github.com/iliyamo/study-room-reservation/internal/config"
	"github.com/iliyamo/study-room-reservation/internal/database"
	"github.com/iliyamo/study-room-reservation/internal/handler"
	"github.com/iliyamo/study-room-reservation/internal/queue"
	"github.com/iliyamo/study-room-reservation/internal/repository"
	"github.com/iliyamo/study-room-reservation/internal/router"
	"github.com/iliyamo/study-room-reservation/internal/storage/mysql"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)

	store := mysql.NewStore(db, reservations, rooms)
	engine := booking.NewEngine(store, store, booking.UTCClock{})

	// Redis is optional: with a nil client the cache and rate-limit
	// middleware become pass-throughs.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	clock := booking.UTCClock{}
	h := &router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, tokens),
		Rooms:       handler.NewRoomHandler(rooms, engine, cacheCfg, rdb),
		Reservation: handler.NewReservationHandler(engine, clock),
		Reviews:     handler.NewReviewHandler(reviews, engine),
		JWTSecret:   cfg.JWTSecret,
		Cache:       cacheCfg,
		RateLimit:   rateCfg,
		RDB:         rdb,
	}

	// The consumer reconnects on its own; a broker outage never blocks
	// the HTTP server.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
