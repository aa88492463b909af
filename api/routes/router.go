package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pawdx/vetlab-backend/api/controllers"
	"github.com/pawdx/vetlab-backend/api/middleware"
	"github.com/pawdx/vetlab-backend/internal/addresses"
	internalauth "github.com/pawdx/vetlab-backend/internal/auth"
	"github.com/pawdx/vetlab-backend/internal/billing"
	"github.com/pawdx/vetlab-backend/internal/bookings"
	"github.com/pawdx/vetlab-backend/internal/catalog"
	"github.com/pawdx/vetlab-backend/internal/fulfillment"
	"github.com/pawdx/vetlab-backend/internal/pets"
	"github.com/pawdx/vetlab-backend/internal/pricing"
	"github.com/pawdx/vetlab-backend/internal/staff"
	"github.com/pawdx/vetlab-backend/internal/users"
	"github.com/pawdx/vetlab-backend/pkg/auth/session"
	"github.com/pawdx/vetlab-backend/pkg/config"
	"github.com/pawdx/vetlab-backend/pkg/db"
	"github.com/pawdx/vetlab-backend/pkg/enums"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/maps"
	"github.com/pawdx/vetlab-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *redis.Client
	Session session.AccessSessionChecker

	Auth        internalauth.Service
	Users       users.Service
	Addresses   addresses.Service
	Pets        pets.Service
	Staff       staff.Service
	Catalog     catalog.Service
	Pricing     pricing.Service
	Promos      pricing.Admin
	Bookings    bookings.Service
	Fulfillment fulfillment.Service
	Billing     billing.Service

	Maps     *maps.Client
	Registry *prometheus.Registry
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterPhoneLimit,
	)

	staffRoles := []string{string(enums.UserRoleStaff), string(enums.UserRoleAdmin)}
	adminOnly := []string{string(enums.UserRoleAdmin)}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	// Public catalog reads.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/categories", controllers.CategoryList(deps.Catalog, logg))
		r.Get("/tests", controllers.TestList(deps.Catalog, logg))
		r.Get("/tests/{id}", controllers.TestGet(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.MyProfile(deps.Users, logg))
			r.Patch("/", controllers.UpdateMyProfile(deps.Users, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
			r.Get("/", controllers.AddressList(deps.Addresses, logg))
			r.Get("/suggest", controllers.AddressSuggest(deps.Maps, logg))
			r.Post("/resolve", controllers.AddressResolve(deps.Maps, logg))
			r.Get("/{id}", controllers.AddressGet(deps.Addresses, logg))
			r.Patch("/{id}", controllers.AddressUpdate(deps.Addresses, logg))
			r.Delete("/{id}", controllers.AddressDelete(deps.Addresses, logg))
			r.Post("/{id}/default", controllers.AddressSetDefault(deps.Addresses, logg))
		})

		r.Route("/pets", func(r chi.Router) {
			r.Post("/", controllers.PetCreate(deps.Pets, logg))
			r.Get("/", controllers.PetList(deps.Pets, logg))
			r.Get("/{id}", controllers.PetGet(deps.Pets, logg))
			r.Patch("/{id}", controllers.PetUpdate(deps.Pets, logg))
			r.Delete("/{id}", controllers.PetDelete(deps.Pets, logg))
		})

		r.Post("/pricing/quote", controllers.QuotePrice(deps.Pricing, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.BookingCreate(deps.Bookings, logg))
			r.Get("/", controllers.BookingListMine(deps.Bookings, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, staffRoles...))
				r.Get("/lookup", controllers.BookingLookupByPhone(deps.Bookings, logg))
				r.Get("/upcoming", controllers.BookingUpcoming(deps.Bookings, logg))
				r.Post("/{id}/status", controllers.BookingUpdateStatus(deps.Bookings, logg))
				r.Post("/{id}/assign-staff", controllers.BookingAssignStaff(deps.Bookings, logg))
				r.Post("/{id}/batch-groups", controllers.BatchGroupCreate(deps.Fulfillment, logg))
				r.Get("/{id}/batch-groups", controllers.BatchGroupList(deps.Fulfillment, logg))
				r.Post("/{id}/batch-groups/{group_id}/attach", controllers.BatchGroupAttach(deps.Fulfillment, logg))
			})

			r.Get("/{id}", controllers.BookingGet(deps.Bookings, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/orders", controllers.MyOrders(deps.Fulfillment, logg))
			r.Get("/{id}/link", controllers.ReportLink(deps.Fulfillment, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, staffRoles...))
				r.Post("/items/{id}/upload", controllers.ReportUpload(deps.Fulfillment, cfg.Storage.MaxUploadMB, logg))
				r.Post("/{id}/status", controllers.ReportAdvanceStatus(deps.Fulfillment, logg))
			})
		})

		r.Route("/billing", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, staffRoles...))
			r.Get("/", controllers.BillingList(deps.Billing, logg))
			r.Post("/{id}/finalize", controllers.BillingFinalize(deps.Billing, logg))
			r.Post("/{id}/invoice", controllers.BillingInvoice(deps.Billing, logg))
			r.Post("/{id}/pay", controllers.BillingPay(deps.Billing, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, adminOnly...))

			r.Route("/staff", func(r chi.Router) {
				r.Post("/", controllers.StaffCreate(deps.Staff, logg))
				r.Get("/", controllers.StaffList(deps.Staff, logg))
				r.Get("/{id}", controllers.StaffGet(deps.Staff, logg))
				r.Patch("/{id}", controllers.StaffUpdate(deps.Staff, logg))
				r.Delete("/{id}", controllers.StaffDeactivate(deps.Staff, logg))
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Post("/categories", controllers.CategoryCreate(deps.Catalog, logg))
				r.Patch("/categories/{id}", controllers.CategoryUpdate(deps.Catalog, logg))
				r.Post("/tests", controllers.TestCreate(deps.Catalog, logg))
				r.Patch("/tests/{id}", controllers.TestUpdate(deps.Catalog, logg))
				r.Delete("/tests/{id}", controllers.TestRemove(deps.Catalog, logg))
			})

			r.Route("/promos", func(r chi.Router) {
				r.Post("/offers", controllers.OfferCreate(deps.Promos, logg))
				r.Get("/offers", controllers.OfferList(deps.Promos, logg))
				r.Patch("/offers/{id}", controllers.OfferUpdate(deps.Promos, logg))
				r.Post("/coupons", controllers.CouponCreate(deps.Promos, logg))
				r.Get("/coupons", controllers.CouponList(deps.Promos, logg))
				r.Patch("/coupons/{id}", controllers.CouponUpdate(deps.Promos, logg))
			})

			r.Route("/distance-configs", func(r chi.Router) {
				r.Post("/", controllers.DistanceConfigCreate(deps.Promos, logg))
				r.Get("/", controllers.DistanceConfigList(deps.Promos, logg))
			})
		})
	})

	return r
}
