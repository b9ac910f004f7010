package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielcastano/abasto-backend/api/controllers"
	"github.com/danielcastano/abasto-backend/api/middleware"
	auditsvc "github.com/danielcastano/abasto-backend/internal/audit"
	authsvc "github.com/danielcastano/abasto-backend/internal/auth"
	catalogsvc "github.com/danielcastano/abasto-backend/internal/catalog"
	productsvc "github.com/danielcastano/abasto-backend/internal/products"
	purchasesvc "github.com/danielcastano/abasto-backend/internal/purchases"
	salesvc "github.com/danielcastano/abasto-backend/internal/sales"
	"github.com/danielcastano/abasto-backend/pkg/config"
	"github.com/danielcastano/abasto-backend/pkg/db"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	"github.com/danielcastano/abasto-backend/pkg/logger"
	"github.com/danielcastano/abasto-backend/pkg/metrics"
	"github.com/danielcastano/abasto-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes, metrics, auth, and the
// authenticated v1 API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService authsvc.Service,
	productService productsvc.Service,
	catalogService catalogsvc.Service,
	auditService auditsvc.Service,
	purchaseService purchasesvc.Service,
	saleService salesvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware())
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	readiness := map[string]controllers.Pinger{"database": dbP}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.Login(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.ListPurchases(purchaseService, logg))
			r.Post("/", controllers.CreatePurchase(purchaseService, logg))
			r.Get("/{purchaseId}", controllers.GetPurchase(purchaseService, logg))
			r.Patch("/{purchaseId}", controllers.UpdatePurchase(purchaseService, logg))
			r.Get("/user/{userId}", controllers.ListPurchasesByUser(purchaseService, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(saleService, logg))
			r.Post("/", controllers.CreateSale(saleService, logg))
			r.Get("/{saleId}", controllers.GetSale(saleService, logg))
			r.Patch("/{saleId}", controllers.UpdateSale(saleService, logg))
			r.Get("/user/{userId}", controllers.ListSalesByUser(saleService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/brands", controllers.ListBrands(catalogService, logg))
			r.Get("/lines", controllers.ListProductLines(catalogService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Post("/brands", controllers.CreateBrand(catalogService, logg))
				r.Post("/lines", controllers.CreateProductLine(catalogService, logg))
			})
		})

		r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).
			Get("/audit", controllers.ListAuditEvents(auditService, logg))
	})

	return r
}
