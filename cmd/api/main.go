package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/namprobe/nekovi-checkout/api/routes"
	"github.com/namprobe/nekovi-checkout/internal/addresses"
	"github.com/namprobe/nekovi-checkout/internal/cart"
	checkoutsvc "github.com/namprobe/nekovi-checkout/internal/checkout"
	couponsvc "github.com/namprobe/nekovi-checkout/internal/coupons"
	"github.com/namprobe/nekovi-checkout/internal/orders"
	paymentsvc "github.com/namprobe/nekovi-checkout/internal/payments"
	"github.com/namprobe/nekovi-checkout/internal/products"
	"github.com/namprobe/nekovi-checkout/pkg/config"
	"github.com/namprobe/nekovi-checkout/pkg/db"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/metrics"
	"github.com/namprobe/nekovi-checkout/pkg/migrate"
	"github.com/namprobe/nekovi-checkout/pkg/outbox"
	"github.com/namprobe/nekovi-checkout/pkg/redis"
	"github.com/namprobe/nekovi-checkout/pkg/shipping"
	"github.com/namprobe/nekovi-checkout/pkg/vnpay"
)

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

	shippingClient, err := shipping.NewClient(cfg.Shipping)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping client", err)
		os.Exit(1)
	}
	vnpayClient, err := vnpay.NewClient(cfg.VNPay)
	if err != nil {
		logg.Error(context.Background(), "failed to create vnpay client", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	productsRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	couponsRepo := couponsvc.NewRepository(dbClient.DB())
	addressesRepo := addresses.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	couponService, err := couponsvc.NewService(couponsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}
	addressService, err := addresses.NewService(addressesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:      dbClient,
		Repo:    ordersRepo,
		Coupons: couponsRepo,
		Cart:    cartRepo,
		Gateway: vnpayClient,
		Events:  outboxService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	sessionStore, err := checkoutsvc.NewStore(redisClient, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}
	coordinator, err := checkoutsvc.NewCoordinator(sessionStore, addressService, shippingClient, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping coordinator", err)
		os.Exit(1)
	}
	drafts, err := checkoutsvc.NewDraftBuilder(cartService, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create draft builder", err)
		os.Exit(1)
	}
	machine, err := checkoutsvc.NewMachine(sessionStore, drafts, couponsRepo, ordersService, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create submission machine", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Store:       sessionStore,
		Coordinator: coordinator,
		Machine:     machine,
		Drafts:      drafts,
		Selector:    couponsRepo,
		Codes:       couponService,
		Config:      cfg.Checkout,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentService, err := paymentsvc.NewService(paymentsvc.ServiceParams{
		DB:      dbClient,
		Repo:    ordersRepo,
		Cart:    cartRepo,
		Decoder: vnpayClient,
		Dedup:   redisClient,
		Events:  outboxService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			checkoutService,
			cartService,
			couponService,
			addressService,
			paymentService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
