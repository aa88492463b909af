package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pawdx/vetlab-backend/api"
	"github.com/pawdx/vetlab-backend/api/routes"
	"github.com/pawdx/vetlab-backend/internal/addresses"
	"github.com/pawdx/vetlab-backend/internal/auth"
	"github.com/pawdx/vetlab-backend/internal/billing"
	"github.com/pawdx/vetlab-backend/internal/bookings"
	"github.com/pawdx/vetlab-backend/internal/catalog"
	"github.com/pawdx/vetlab-backend/internal/fulfillment"
	"github.com/pawdx/vetlab-backend/internal/notify"
	"github.com/pawdx/vetlab-backend/internal/pets"
	"github.com/pawdx/vetlab-backend/internal/pricing"
	"github.com/pawdx/vetlab-backend/internal/staff"
	"github.com/pawdx/vetlab-backend/internal/users"
	"github.com/pawdx/vetlab-backend/pkg/auth/session"
	"github.com/pawdx/vetlab-backend/pkg/config"
	"github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/maps"
	"github.com/pawdx/vetlab-backend/pkg/metrics"
	"github.com/pawdx/vetlab-backend/pkg/migrate"
	"github.com/pawdx/vetlab-backend/pkg/redis"
	"github.com/pawdx/vetlab-backend/pkg/storage/supabase"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	addressesRepo := addresses.NewRepository(gormDB)
	petsRepo := pets.NewRepository(gormDB)
	staffRepo := staff.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	pricingRepo := pricing.NewRepository(gormDB)
	bookingsRepo := bookings.NewRepository(gormDB)
	fulfillmentRepo := fulfillment.NewRepository(gormDB)
	billingRepo := billing.NewRepository(gormDB)

	authService, err := auth.NewService(usersRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	addressesService, err := addresses.NewService(addressesRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create addresses service", err)
		os.Exit(1)
	}

	petsService, err := pets.NewService(petsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pets service", err)
		os.Exit(1)
	}

	staffService, err := staff.NewService(staffRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create staff service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(pricingRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	promoAdmin, err := pricing.NewAdmin(pricingRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo admin", err)
		os.Exit(1)
	}

	notifier, err := notify.FromConfig(cfg.Notify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	billingLoc := cfg.Billing.Location()

	bookingsService, err := bookings.NewService(
		bookingsRepo,
		pricingService,
		petsRepo,
		addressesRepo,
		staffRepo,
		dbClient,
		notifier,
		logg,
		bookingMetrics,
		billingLoc,
		cfg.Notify.OpsNumber,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	fileStore, err := supabase.NewClient(cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to create storage client", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillment.NewService(fulfillmentRepo, bookingsRepo, fileStore, bookingMetrics, cfg.Storage.SignedURLExpiry)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billingRepo, pricingService, dbClient, billingLoc)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	var mapsClient *maps.Client
	if cfg.Maps.APIKey != "" {
		mapsClient, err = maps.NewClient(cfg.Maps.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to create maps client", err)
			os.Exit(1)
		}
	}

	handler := routes.NewRouter(routes.Deps{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Session: sessionManager,

		Auth:        authService,
		Users:       usersService,
		Addresses:   addressesService,
		Pets:        petsService,
		Staff:       staffService,
		Catalog:     catalogService,
		Pricing:     pricingService,
		Promos:      promoAdmin,
		Bookings:    bookingsService,
		Fulfillment: fulfillmentService,
		Billing:     billingService,

		Maps:     mapsClient,
		Registry: registry,
	})

	server := api.NewServer(cfg, handler)

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		if err := api.Shutdown(server, shutdownGrace); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
