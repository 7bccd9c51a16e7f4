package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	addrrepo "github.com/yingmeanshard/yingshop/internal/address/repository"
	addrsvc "github.com/yingmeanshard/yingshop/internal/address/service"
	"github.com/yingmeanshard/yingshop/internal/auth"
	cartcache "github.com/yingmeanshard/yingshop/internal/cart/cache"
	cartrepo "github.com/yingmeanshard/yingshop/internal/cart/repository"
	cartsvc "github.com/yingmeanshard/yingshop/internal/cart/service"
	catalogrepo "github.com/yingmeanshard/yingshop/internal/catalog/repository"
	catalogsvc "github.com/yingmeanshard/yingshop/internal/catalog/service"
	"github.com/yingmeanshard/yingshop/internal/httpapi"
	"github.com/yingmeanshard/yingshop/internal/order/publisher"
	orderrepo "github.com/yingmeanshard/yingshop/internal/order/repository"
	ordersvc "github.com/yingmeanshard/yingshop/internal/order/service"
	userrepo "github.com/yingmeanshard/yingshop/internal/user/repository"
	usersvc "github.com/yingmeanshard/yingshop/internal/user/service"
	"github.com/yingmeanshard/yingshop/pkg/config"
	"github.com/yingmeanshard/yingshop/pkg/logger"
	"github.com/yingmeanshard/yingshop/pkg/shutdown"
)

func main() {
	cfg := config.Load()

	logg := logger.New(logger.Options{
		Service: "yingshop",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Postgres holds products, users, addresses and orders; one pool for all.
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)

	orderRepo := orderrepo.NewWithDB(db)
	creds := &orderrepo.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	if err := orderRepo.RunMigrations(creds); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Carts live in MongoDB, keyed by the caller-held token.
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cartrepo.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create cart indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	cartService := cartsvc.NewCartService(cartRepo, cartcache.NewRedisCache(redisClient, cfg.CartCacheTTL))
	catalogService := catalogsvc.NewCatalogService(catalogrepo.NewRepository(db, "postgres"))
	userService := usersvc.NewUserService(userrepo.NewRepository(db), usersvc.ConsoleMailer{})
	addressService := addrsvc.NewAddressService(addrrepo.NewRepository(db))
	orderService := ordersvc.NewOrderService(orderRepo, cartService, catalogService, userService, addressService)

	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin account: %v", err)
	}

	poller := publisher.NewOutboxPoller(orderRepo, cfg.OrderTopic, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Carts:     cartService,
		Catalog:   catalogService,
		Orders:    orderService,
		Users:     userService,
		Addresses: addressService,
		Issuer:    issuer,
		Timeout:   cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      otelhttp.NewHandler(router, "yingshop"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logg.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	logg.Info("server exited")
}
