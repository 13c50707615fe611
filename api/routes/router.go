package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rdelacruz/freshmarket-backend/api/controllers"
	"github.com/rdelacruz/freshmarket-backend/api/middleware"
	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	checkoutsvc "github.com/rdelacruz/freshmarket-backend/internal/checkout"
	"github.com/rdelacruz/freshmarket-backend/internal/docexport"
	"github.com/rdelacruz/freshmarket-backend/internal/orders"
	"github.com/rdelacruz/freshmarket-backend/internal/products"
	"github.com/rdelacruz/freshmarket-backend/pkg/config"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	FeedPinger  controllers.Pinger
	CartManager *cart.Manager
	Catalog     *products.Repository
	Checkout    checkoutsvc.Service
	Orders      orders.Repository
	Renderer    *docexport.Renderer
	Registry    *prometheus.Registry
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.DBPinger, d.FeedPinger))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(d.Catalog, d.Logger))
			r.Get("/categories", controllers.ListCategories(d.Catalog, d.Logger))
			r.Get("/{productID}", controllers.GetProduct(d.Catalog, d.Logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(d.Logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.CartManager))
				r.Delete("/", controllers.ClearCart(d.CartManager))
				r.Post("/items", controllers.AddCartItem(d.CartManager, d.Catalog, d.Logger))
				r.Patch("/items/{productID}", controllers.UpdateCartItem(d.CartManager, d.Logger))
				r.Delete("/items/{productID}", controllers.RemoveCartItem(d.CartManager, d.Logger))
			})

			r.Post("/checkout", controllers.SubmitCheckout(d.Checkout, d.CartManager, d.Logger))
		})
	})

	r.Route("/api/admin/v1/orders", func(r chi.Router) {
		r.Get("/", controllers.ListOrders(d.Orders, d.Logger))
		r.Get("/{orderID}", controllers.GetOrder(d.Orders, d.Logger))
		r.Patch("/{orderID}/status", controllers.UpdateOrderStatus(d.Orders, d.Logger))
		r.Delete("/{orderID}", controllers.DeleteOrder(d.Orders, d.Logger))
		r.Get("/{orderID}/export", controllers.ExportOrder(d.Orders, d.Renderer, d.Logger))
	})

	return r
}
