package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/pos-backend/api/controllers/orders"
	stockcontrollers "github.com/angelmondragon/pos-backend/api/controllers/stock"
	"github.com/angelmondragon/pos-backend/api/middleware"
	"github.com/angelmondragon/pos-backend/internal/catalog"
	"github.com/angelmondragon/pos-backend/internal/orders"
	"github.com/angelmondragon/pos-backend/internal/stock"
	"github.com/angelmondragon/pos-backend/pkg/config"
	"github.com/angelmondragon/pos-backend/pkg/enums"
	"github.com/angelmondragon/pos-backend/pkg/logger"
	"github.com/angelmondragon/pos-backend/pkg/redis"
)

// Services groups the domain services served over HTTP.
type Services struct {
	Catalog catalog.Service
	Stock   stock.Service
	Orders  orders.Service
}

// NewRouter mounts health, metrics and the /api/v1 surface. idempotencyStore
// and metricsHandler may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness []controllers.ReadinessCheck,
	idempotencyStore redis.IdempotencyStore,
	metricsHandler http.Handler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	lowStockDefault := decimal.NewFromFloat(cfg.Stock.LowStockThresholdGrams)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			// till
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleCashier))

				r.Get("/products/pos", controllers.POSProducts(svcs.Catalog, logg))

				r.Post("/orders", ordercontrollers.Create(svcs.Orders, logg))
				r.Get("/orders", ordercontrollers.List(svcs.Orders, logg))
				r.Get("/orders/{orderId}", ordercontrollers.Detail(svcs.Orders, logg))
				r.Post("/orders/{orderId}/confirm", ordercontrollers.Confirm(svcs.Orders, logg))
			})

			// back office
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))

				r.Get("/products", controllers.AdminListProducts(svcs.Catalog, logg))
				r.Post("/products", controllers.AdminCreateProduct(svcs.Catalog, logg))
				r.Get("/products/{productId}", controllers.AdminGetProduct(svcs.Catalog, logg))
				r.Patch("/products/{productId}", controllers.AdminUpdateProduct(svcs.Catalog, logg))

				r.Get("/ingredients", controllers.AdminListIngredients(svcs.Catalog, logg))
				r.Post("/ingredients", controllers.AdminCreateIngredient(svcs.Catalog, logg))

				r.Get("/recipes", controllers.AdminListRecipes(svcs.Catalog, logg))
				r.Post("/recipes", controllers.AdminCreateRecipe(svcs.Catalog, logg))
				r.Delete("/recipes/{recipeId}", controllers.AdminDeleteRecipe(svcs.Catalog, logg))

				r.Get("/stock", stockcontrollers.List(svcs.Stock, logg))
				r.Get("/stock/movements", stockcontrollers.Movements(svcs.Stock, logg))
				r.Get("/stock/low", stockcontrollers.Low(svcs.Stock, lowStockDefault, logg))
				r.Post("/stock/add", stockcontrollers.Add(svcs.Stock, logg))
				r.Post("/stock/adjust", stockcontrollers.Adjust(svcs.Stock, logg))
				r.Get("/stock/{ingredientId}/reconcile", stockcontrollers.Reconcile(svcs.Stock, logg))
			})
		})
	})

	return r
}
