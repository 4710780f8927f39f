package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/handlers"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/consul"
	"storefront/internal/customers"
	"storefront/internal/events"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/stores/kafka"
	"storefront/internal/stores/memory"
	"storefront/internal/stores/postgres"
	"storefront/internal/tags"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

type store interface {
	catalog.Repository
	cart.Repository
	customers.Repository
	orders.Repository
	tags.Repository
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := run(); err != nil {
		slog.Error("storefront stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := auth.LoadKeys(cfg.JWTPublicKeyPath)
	if err != nil {
		return err
	}

	services, closeServices, err := newServices(cfg, st)
	if err != nil {
		return err
	}
	defer closeServices()

	api, err := handlers.API(cfg.EndpointPrefix, keys, services)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Port),
		Handler: cors.New(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Stripe-Signature"},
			ExposedHeaders: []string{"X-Trace-Id"},
		}).Handler(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var consumer *kafka.Conf
	if cfg.KafkaEnabled() {
		consumer, err = kafka.NewConf(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, cfg.KafkaAccountTopic)
		if err != nil {
			return err
		}
		defer consumer.Close()
	}

	if cfg.ConsulEnabled() {
		deregister, err := register(cfg)
		if err != nil {
			return err
		}
		defer deregister()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("storefront listening", slog.String("Addr", srv.Addr), slog.String("Store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Consume(gctx, kafka.AccountCreatedHandler(func(ctx context.Context, userID string) error {
				_, err := services.Customers.EnsureCustomer(ctx, userID)
				return err
			}))
		})
	}

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		slog.Warn("using the in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", slog.String(logkey.ERROR, err.Error()))
		}
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		closeDB()
		return nil, nil, err
	}
	s, err := postgres.New(db)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return s, closeDB, nil
}

func newServices(cfg config.Config, st store) (handlers.Services, func(), error) {
	var s handlers.Services
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var err error
	if s.Catalog, err = catalog.NewConf(st); err != nil {
		return s, nil, err
	}
	if s.Carts, err = cart.NewConf(st); err != nil {
		return s, nil, err
	}
	if s.Customers, err = customers.NewConf(st); err != nil {
		return s, nil, err
	}
	if s.Tags, err = tags.NewConf(st); err != nil {
		return s, nil, err
	}

	bus := events.NewBus[orders.OrderCreated]()
	closers = append(closers, func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), events.DefaultListenerTimeout)
		defer cancel()
		if err := bus.Wait(drainCtx); err != nil {
			slog.Error("order event listeners still running at shutdown", slog.String(logkey.ERROR, err.Error()))
		}
	})
	bus.Subscribe("log", handlers.LogOrderCreated)
	if cfg.KafkaEnabled() {
		producer, err := kafka.NewConf(cfg.KafkaBrokers, "")
		if err != nil {
			return s, nil, err
		}
		closers = append(closers, producer.Close)
		bus.Subscribe("kafka", kafka.OrderCreatedListener(producer, cfg.KafkaOrderTopic))
	}
	if s.Orders, err = orders.NewConf(st, bus); err != nil {
		closeAll()
		return s, nil, err
	}

	if cfg.StripeEnabled() {
		if s.Payments, err = payments.NewConf(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeSuccessURL, cfg.StripeCancelURL); err != nil {
			closeAll()
			return s, nil, err
		}
	} else {
		slog.Warn("STRIPE_SECRET_KEY is not set, checkout is disabled")
	}
	return s, closeAll, nil
}

func register(cfg config.Config) (func(), error) {
	client, err := consul.NewClient(cfg.ConsulAddr)
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%s-%s-%d", cfg.ServiceName, cfg.ServiceHost, cfg.Port)
	err = consul.RegisterService(client, consul.Registration{
		ID:      id,
		Name:    cfg.ServiceName,
		Host:    cfg.ServiceHost,
		Port:    cfg.Port,
		Healthz: "/ping",
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := consul.DeregisterService(client, id); err != nil {
			slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
		}
	}, nil
}

var _ store = (*postgres.Store)(nil)
var _ store = (*memory.Store)(nil)
