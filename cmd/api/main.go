package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Brocoder07/ShopStream/internal/auth"
	"github.com/Brocoder07/ShopStream/internal/catalog"
	"github.com/Brocoder07/ShopStream/internal/config"
	"github.com/Brocoder07/ShopStream/internal/httpx"
	kafkax "github.com/Brocoder07/ShopStream/internal/kafka"
	"github.com/Brocoder07/ShopStream/internal/orders"
	"github.com/Brocoder07/ShopStream/internal/postgres"
	"github.com/Brocoder07/ShopStream/internal/redisx"
	"github.com/Brocoder07/ShopStream/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	// Stores & services
	userStore := &users.Repo{DB: db}
	if err := users.EnsureAdmin(ctx, userStore, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}
	catalogStore := &catalog.Repo{DB: db}
	orderSvc := &orders.Service{Users: userStore, Store: &orders.Repo{DB: db}}

	jwtSvc := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	mw := &httpx.AuthMiddleware{JWT: jwtSvc}

	// Router & handlers
	limiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := httpx.NewRouter(limiter)
	(&httpx.AuthHandler{Users: userStore, JWT: jwtSvc, Auth: mw}).Register(router)
	(&httpx.ProductsHandler{Catalog: catalogStore, Auth: mw}).Register(router)
	(&httpx.OrdersHandler{
		Svc:            orderSvc,
		PlacedProducer: pPlaced,
		StatusProducer: pStatus,
		Redis:          rdb,
		Auth:           mw,
		Service:        cfg.ServiceName,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pPlaced.Close() // close inbox -> flush & close writer
	pStatus.Close()
	cancel() // stop producer loops
	pPlaced.WaitClosed()
	pStatus.WaitClosed()
}
