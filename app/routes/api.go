// Package routes declares the HTTP surface of the storefront. All
// endpoints are JSON and mounted at the root; /healthz and /metrics serve
// operations.
package routes

import (
	"net/http"

	"github.com/mad23dog/nomad-detroit-coffee/app/controllers"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/metrics"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/middleware"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/response"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/router"
)

// Controllers bundles everything the route table needs.
type Controllers struct {
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Auth     *controllers.AuthController
}

// Register mounts every route on r.
func Register(r *router.Router, c Controllers) {
	r.Get("/products", "products.index", c.Products.Index)
	r.Get("/products/{id}", "products.show", c.Products.Show)
	r.Put("/products/{id}/stock", "products.stock", c.Products.UpdateStock,
		middleware.AdminAuth)

	r.Post("/orders/create", "orders.create", c.Orders.Create)
	r.Post("/orders/verify-payment", "orders.verify", c.Orders.VerifyPayment)
	r.Post("/orders/process-payment", "orders.process", c.Orders.ProcessPayment)
	r.Get("/orders/{orderID}", "orders.show", c.Orders.Show,
		middleware.AdminAuth)

	r.Post("/admin/login", "admin.login", c.Auth.Login)

	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	r.HandleFunc("/metrics", metrics.Handler().ServeHTTP)
}
