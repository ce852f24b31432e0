package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/safar/go-food-order/internal/api"
	"github.com/safar/go-food-order/internal/auth"
	"github.com/safar/go-food-order/internal/config"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/logger"
	"github.com/safar/go-food-order/internal/orders"
	"github.com/safar/go-food-order/internal/receipt"
	"github.com/safar/go-food-order/internal/store"
)

type application struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	db     *sql.DB
	redis  *redis.Client
	closer func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Init logger: %v", err)
	}
	defer logg.Sync()

	if cfg.Auth.UsingDevSecret {
		logg.Warnw("JWT_SECRET is not set, signing tokens with the development key", "env", cfg.App.Env)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logg.Fatalw("connect to database", "error", err)
	}
	logg.Info("connected to database")

	app := &application{cfg: cfg, logger: logg, db: db}

	st := store.New(db)

	var stats api.StatsReader
	if cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logg.Warnw("redis unavailable, daily stats disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			stats = events.NewStats(app.redis, cfg.Redis.StatsTTL)
			logg.Infow("connected to redis", "addr", cfg.Redis.Addr)
		}
		cancel()
	}

	var publisher orders.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		app.closer = writer.Close
		publisher = events.NewKafkaPublisher(writer)
		logg.Infow("publishing order events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.OrderTopic)
	} else {
		logg.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	authenticator := auth.NewAuthenticator(st, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), logg)
	orderService := orders.NewService(st, st, publisher, receipt.QRGenerator{}, cfg.Orders, logg)

	handler := api.NewHandler(authenticator, orderService, st, stats, logg)

	if err := app.run(api.NewRouter(handler, cfg.Server.AllowedOrigins)); err != nil {
		logg.Fatalw("server error", "error", err)
	}
}

// run serves until SIGINT or SIGTERM, then drains requests and closes
// connections.
func (app *application) run(handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + app.cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		err := srv.Shutdown(ctx)

		if app.closer != nil {
			if err := app.closer(); err != nil {
				app.logger.Errorw("close kafka writer", "error", err)
			}
		}
		if app.redis != nil {
			if err := app.redis.Close(); err != nil {
				app.logger.Errorw("close redis", "error", err)
			}
		}
		if err := app.db.Close(); err != nil {
			app.logger.Errorw("close database", "error", err)
		}

		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", srv.Addr, "env", app.cfg.App.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)
	return nil
}
