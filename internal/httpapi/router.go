package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yingmeanshard/yingshop/internal/auth"
)

type RouterDeps struct {
	Carts     CartOps
	Catalog   CatalogOps
	Orders    OrderOps
	Users     UserOps
	Addresses AddressOps
	Issuer    *auth.TokenIssuer
	Timeout   time.Duration
}

// NewRouter wires all handlers behind the shared middleware stack.
func NewRouter(deps RouterDeps) http.Handler {
	cartHandler := NewCartHandler(deps.Carts, deps.Catalog, deps.Timeout)
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Timeout)
	orderHandler := NewOrderHandler(deps.Orders, deps.Timeout)
	userHandler := NewUserHandler(deps.Users, deps.Issuer, deps.Timeout)
	addressHandler := NewAddressHandler(deps.Addresses, deps.Timeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(deps.Timeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(deps.Issuer))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public storefront.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/{product_id}", catalogHandler.GetProduct)
		})

		// Anonymous cart, keyed by X-Cart-Token.
		r.Route("/cart", func(r chi.Router) {
			r.Post("/token", cartHandler.NewToken)
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Put("/selection", cartHandler.SetSelected)
			r.Put("/address", cartHandler.SelectAddress)
			r.Delete("/", cartHandler.ClearCart)
		})

		// Account.
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)
		r.Post("/auth/forgot-password", userHandler.ForgotPassword)
		r.Post("/auth/reset-password", userHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.Profile)
				r.Put("/", userHandler.UpdateProfile)
				r.Put("/password", userHandler.ChangePassword)
				r.Put("/default-address", userHandler.SetDefaultAddress)
				r.Delete("/", userHandler.DeleteAccount)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", addressHandler.List)
				r.Post("/", addressHandler.Save)
				r.Delete("/{address_id}", addressHandler.Delete)
				r.Put("/{address_id}/default", addressHandler.MarkDefault)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.CreateOrder)
				r.Get("/", orderHandler.ListMyOrders)
				r.Get("/{order_id}", orderHandler.GetOrder)
			})
		})

		// Back office.
		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(RequireAction(auth.ActionManageCatalog))
				r.Get("/products", catalogHandler.ListAllProducts)
				r.Post("/products", catalogHandler.CreateProduct)
				r.Put("/products/{product_id}", catalogHandler.UpdateProduct)
				r.Delete("/products/{product_id}", catalogHandler.DeleteProduct)
				r.Put("/products/{product_id}/listing", catalogHandler.SetListed)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAction(auth.ActionManageStock))
				r.Put("/products/{product_id}/stock", catalogHandler.SetStock)
				r.Put("/products/stock", catalogHandler.SetStocks)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAction(auth.ActionViewAllOrders))
				r.Get("/orders", orderHandler.ListAllOrders)
				r.Get("/orders/{order_id}", orderHandler.GetAnyOrder)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAction(auth.ActionUpdateStatus))
				r.Put("/orders/{order_id}/status", orderHandler.UpdateStatus)
			})
		})
	})

	return r
}
