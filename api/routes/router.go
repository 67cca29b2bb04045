package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/namprobe/nekovi-checkout/api/controllers"
	"github.com/namprobe/nekovi-checkout/api/middleware"
	"github.com/namprobe/nekovi-checkout/internal/addresses"
	"github.com/namprobe/nekovi-checkout/internal/cart"
	checkoutsvc "github.com/namprobe/nekovi-checkout/internal/checkout"
	couponsvc "github.com/namprobe/nekovi-checkout/internal/coupons"
	paymentsvc "github.com/namprobe/nekovi-checkout/internal/payments"
	"github.com/namprobe/nekovi-checkout/pkg/config"
	"github.com/namprobe/nekovi-checkout/pkg/db"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService *checkoutsvc.Service,
	cartService cart.Service,
	couponService couponsvc.Service,
	addressService addresses.Service,
	paymentService *paymentsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Gateway redirects land here without credentials.
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Get("/vnpay/return", controllers.PaymentReturn(paymentService, logg))
		r.Get("/orders/{orderId}", controllers.PaymentOrderStatus(paymentService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.CartFetch(cartService, cfg.Checkout.CartPageSize, logg))
		r.Post("/items", controllers.CartAddItem(cartService, logg))
		r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
		r.Delete("/items/{itemId}", controllers.CartDeleteItem(cartService, logg))
	})

	r.Route("/api/v1/addresses", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.AddressList(addressService, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		// Buy-now sessions may belong to guests; the token is honored when
		// present so the session can still carry the customer identity.
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Post("/cart", controllers.CheckoutStartCart(checkoutService, logg))
		r.Post("/buy-now", controllers.CheckoutStartBuyNow(checkoutService, logg))

		r.Route("/sessions/{sessionKey}", func(r chi.Router) {
			r.Get("/", controllers.CheckoutSummary(checkoutService, logg))
			r.Put("/page", controllers.CheckoutSetPage(checkoutService, logg))
			r.Post("/coupons/toggle", controllers.CheckoutToggleCoupon(checkoutService, logg))
			r.Post("/coupons/code", controllers.CheckoutApplyCode(checkoutService, logg))
			r.Get("/coupons", controllers.CheckoutListCoupons(checkoutService, couponService, logg))
			r.Put("/payment-method", controllers.CheckoutSetPaymentMethod(checkoutService, logg))
			r.Put("/guest-info", controllers.CheckoutSetGuestInfo(checkoutService, logg))
			r.Put("/address", controllers.CheckoutSelectAddress(checkoutService, logg))
			r.Put("/shipping-method", controllers.CheckoutSelectShippingMethod(checkoutService, logg))
			r.Post("/shipping/resolve", controllers.CheckoutResolveShipping(checkoutService, logg))
			r.Post("/submit", controllers.CheckoutSubmit(checkoutService, logg))
		})
	})

	return r
}
