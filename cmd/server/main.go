package main // Entry point package

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/config"
    "github.com/iliyamo/room-reservation/internal/database"
    "github.com/iliyamo/room-reservation/internal/handler"
    "github.com/iliyamo/room-reservation/internal/middleware"
    "github.com/iliyamo/room-reservation/internal/queue"
    "github.com/iliyamo/room-reservation/internal/repository"
    "github.com/iliyamo/room-reservation/internal/router"

    "github.com/iliyamo/room-reservation/internal/booking"
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

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    if err := database.EnsureSchema(ctx, db); err != nil {
        cancel()
        log.Fatalf("schema: %v", err)
    }
    cancel()

    // Redis is optional: a nil client disables rate limiting and the
    // response cache, and the API keeps working.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; rate limiting and response cache disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    rooms := repository.NewRoomRepo(db)
    reservations := repository.NewReservationRepo(db)

    engine := booking.NewEngine(reservations, config.LoadBookingRules())

    authHandler := handler.NewAuthHandler(cfg, users, tokens)
    roomHandler := handler.NewRoomHandler(rooms)
    reservationHandler := handler.NewReservationHandler(engine, users)

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterRooms(e, roomHandler, cfg.JWTSecret, cacheMW)
    router.RegisterReservations(e, reservationHandler, cfg.JWTSecret)

    // Background consumer mirrors reservation.status events into
    // logs/reservation.log; it reconnects on broker failure.
    go func() {
        if err := queue.StartReservationConsumer(); err != nil {
            log.Printf("reservation consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
