package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/agrocart/internal/api"
	"github.com/safar/agrocart/internal/cart"
	"github.com/safar/agrocart/internal/catalog"
	"github.com/safar/agrocart/internal/checkout"
	"github.com/safar/agrocart/internal/config"
	"github.com/safar/agrocart/internal/database"
	"github.com/safar/agrocart/internal/events"
	"github.com/safar/agrocart/internal/logging"
	"github.com/safar/agrocart/internal/notify"
	"github.com/safar/agrocart/internal/payment"
	"github.com/safar/agrocart/internal/storage"
	"github.com/safar/agrocart/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger := logging.Init("agrocart", cfg.Log.File, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var db *sql.DB
	if cfg.NeedsDatabase() {
		conn, err := database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer conn.Close()
		db = conn
		logger.Info("connected to database")
	}

	st, closeStorage, err := openStorage(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStorage()

	var products catalog.Catalog = catalog.NewMemory()
	if cfg.Catalog.Backend == config.BackendPostgres {
		products = store.NewProductStore(db)
	}

	var history checkout.OrderHistory = checkout.NewStorageHistory(st)
	if cfg.Cart.OrderHistory == config.BackendPostgres {
		history = store.NewOrderHistory(db)
	}

	notifier := notify.NewLogNotifier(logging.New("notify"))
	cartStore := cart.Load(ctx, st, notifier, logging.New("cart"))
	cartService := cart.NewService(cartStore, cart.NewStockChecker(products, logging.New("stock")), notifier, logging.New("cart"))
	coupon := checkout.NewCoupon(notifier)

	var publisher checkout.OrderPublisher
	if cfg.Events.RabbitMQURL != "" {
		pool, err := events.NewChannelPool(cfg.Events.RabbitMQURL, cfg.Events.Queue, 4, logging.New("events"))
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer pool.Close()
		publisher = events.NewPublisher(pool, cfg.Events.Queue, logging.New("events"))
	}

	submitter := checkout.NewSubmitter(checkout.Deps{
		Cart:      cartService,
		Coupon:    coupon,
		Gateway:   payment.NewClient(cfg.Payment.GatewayURL, cfg.Payment.Timeout),
		History:   history,
		Publisher: publisher,
		Stock:     products,
		Notifier:  notifier,
		Logger:    logging.New("checkout"),
		Currency:  cfg.Payment.Currency,
		KeySecret: cfg.Payment.KeySecret,
	})

	srv := api.NewServer(api.Deps{
		Catalog:        products,
		Cart:           cartService,
		Coupon:         coupon,
		Submitter:      submitter,
		History:        history,
		Logger:         logging.New("http"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port,
			"cart_storage", cfg.Cart.Storage, "catalog", cfg.Catalog.Backend, "order_history", cfg.Cart.OrderHistory)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStorage returns the backend for the cart and the default order history.
func openStorage(ctx context.Context, cfg *config.Config, db *sql.DB) (storage.Storage, func(), error) {
	noop := func() {}

	switch cfg.Cart.Storage {
	case config.BackendMemory:
		return storage.NewMemory(), noop, nil
	case config.BackendFile:
		st, err := storage.NewFile(cfg.Cart.StorageDir)
		if err != nil {
			return nil, noop, fmt.Errorf("open file storage: %w", err)
		}
		return st, noop, nil
	case config.BackendPostgres:
		return storage.NewPostgres(db), noop, nil
	case config.BackendRedis:
		st, err := storage.NewRedis(ctx, cfg.Cart.RedisURL, "agrocart", 0)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis storage: %w", err)
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown cart storage %q", cfg.Cart.Storage)
	}
}
