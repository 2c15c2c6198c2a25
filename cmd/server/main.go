package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/greenloop/ewaste-pickup/internal/config"
	"github.com/greenloop/ewaste-pickup/internal/database"
	"github.com/greenloop/ewaste-pickup/internal/handler"
	"github.com/greenloop/ewaste-pickup/internal/middleware"
	"github.com/greenloop/ewaste-pickup/internal/queue"
	"github.com/greenloop/ewaste-pickup/internal/repository"
	"github.com/greenloop/ewaste-pickup/internal/router"
	"github.com/greenloop/ewaste-pickup/internal/workflow"
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

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	requests := repository.NewPickupRequestRepo(db)
	profiles := repository.NewRecyclerProfileRepo(db)

	flow := workflow.NewAssignment(requests, profiles)

	authH := handler.NewAuthHandler(cfg, users, tokens, profiles)
	reqH := handler.NewRequestHandler(flow, profiles)
	recH := handler.NewRecyclerHandler(flow, profiles)

	e := echo.New()
	e.HideBanner = true

	// Redis is optional: without it the limiter and cache become no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterRequests(e, reqH, cfg.JWTSecret)
	router.RegisterRecyclers(e, recH, cfg.JWTSecret, cacheMW)

	// Consumer keeps its own reconnect loop; a hard failure only loses the
	// audit log, never the API.
	go func() {
		if err := queue.StartAcceptedConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
