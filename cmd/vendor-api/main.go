// @title                       Vendor back-office API
// @version                     1.0
// @description                 Products, customers, orders and API keys of the vendor back office.
// @BasePath                    /v1
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/vendor-backoffice/internal/apikey"
	"github.com/MikeMC777/vendor-backoffice/internal/audit"
	"github.com/MikeMC777/vendor-backoffice/internal/config"
	"github.com/MikeMC777/vendor-backoffice/internal/customer"
	"github.com/MikeMC777/vendor-backoffice/internal/db"
	"github.com/MikeMC777/vendor-backoffice/internal/grpcx"
	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
	"github.com/MikeMC777/vendor-backoffice/internal/integration"
	"github.com/MikeMC777/vendor-backoffice/internal/logger"
	"github.com/MikeMC777/vendor-backoffice/internal/order"
	"github.com/MikeMC777/vendor-backoffice/internal/product"
	"github.com/MikeMC777/vendor-backoffice/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Development:       cfg.IsDevelopment(),
		Level:             cfg.Logger.Level,
		Encoding:          cfg.Logger.Encoding,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer func() { _ = log.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("could not connect to database", zap.Error(err))
	}
	defer pool.Close()
	if cfg.Postgres.ApplySchema {
		if err := db.ApplySchema(ctx, pool); err != nil {
			log.Fatal("could not apply schema", zap.Error(err))
		}
	}
	log.Info("connected to PostgreSQL")

	// audit sinks
	emitters := audit.Multi{audit.NewHTTPEmitter(integration.NewDispatcher("audit", cfg.Audit, log))}
	if len(cfg.Kafka.Brokers) > 0 {
		k := audit.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		defer func() { _ = k.Close() }()
		emitters = append(emitters, k)
		log.Info("mirroring audit events to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.AuditTopic))
	}
	if cfg.IsDevelopment() {
		emitters = append(emitters, audit.Logged{Log: log})
	}

	inventory := integration.NewInventory(integration.NewDispatcher("inventory", cfg.Inventory, log))
	factory := integration.NewFactory(integration.NewDispatcher("factory", cfg.Factory, log))
	finance := integration.NewFinance(integration.NewDispatcher("finance", cfg.Finance, log))

	products := product.NewService(product.NewPGRepo(pool), emitters)
	customers := customer.NewService(customer.NewPGRepo(pool), emitters)
	advisor := order.NewAdvisor(inventory, factory, emitters, log)
	orders := order.NewService(order.NewPGRepo(pool), products, customers, advisor, finance, emitters, log)
	apiKeys := apikey.NewService(apikey.NewPGRepo(pool), log)

	store, closeStore := newLimiterStore(ctx, cfg, log)
	defer closeStore()

	legacy, err := httpx.NewLegacyKey(cfg.Auth.LegacyAPIKey, bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("legacy api key", zap.Error(err))
	}
	if cfg.Auth.LegacyAPIKey == "" {
		log.Warn("API_KEY not set: only database API keys are accepted")
	}

	router := newRouter(app{
		log: log,
		auth: &httpx.Auth{
			Keys:    apiKeys,
			Limiter: ratelimit.NewLimiter(store, cfg.RateLimit.Window),
			Legacy:  legacy,
			Log:     log,
		},
		products:  products,
		customers: customers,
		orders:    orders,
		apiKeys:   apiKeys,
		ping:      pool.Ping,
	})

	// gRPC health
	health := grpcx.NewHealth(pool, log)
	go health.Run(ctx, 10*time.Second)
	lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.Server.GRPCHealthAddr), zap.Error(err))
	}
	grpcServer := grpcx.NewServer(health)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	log.Info("gRPC health listening", zap.String("addr", cfg.Server.GRPCHealthAddr))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()
	log.Info("vendor-api listening", zap.String("addr", cfg.Server.HTTPAddr), zap.String("env", cfg.Server.AppEnv))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	log.Info("stopped")
}

// newLimiterStore picks the rate-limit backend. A Redis that does not answer
// at startup is only logged: the limiter fails open.
func newLimiterStore(ctx context.Context, cfg config.Config, log *zap.Logger) (ratelimit.Store, func()) {
	if cfg.RateLimit.Backend == "redis" {
		rdb := rd.NewClient(&rd.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			log.Warn("redis not reachable, requests will not be rate limited until it is", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
		return ratelimit.NewRedisStore(rdb), func() { _ = rdb.Close() }
	}

	mem := ratelimit.NewMemoryStore()
	go mem.Run(ctx, time.Minute)
	return mem, func() {}
}
