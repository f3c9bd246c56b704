package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/bind"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/response"
)

// OrderController handles the two checkout flows and payment
// verification.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// orderView is the JSON shape returned for a finished checkout call. Keys
// are camelCase to match what the storefront front end expects.
type orderView struct {
	OrderID       string             `json:"orderId"`
	Status        models.OrderStatus `json:"status"`
	Total         float64            `json:"total"`
	Shipping      float64            `json:"shipping"`
	CustomerEmail string             `json:"customerEmail"`
	Items         []itemView         `json:"items"`
}

type itemView struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

func viewOf(order *models.Order) orderView {
	v := orderView{
		OrderID:       order.OrderID,
		Status:        order.Status,
		Total:         order.TotalAmount,
		Shipping:      order.ShippingAmount,
		CustomerEmail: order.CustomerEmail,
		Items:         []itemView{},
	}
	for _, item := range order.Items {
		v.Items = append(v.Items, itemView{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return v
}

// Create records a pending order ahead of payment.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	var raw services.RawOrderRequest
	if _, err := bind.JSON(r, &raw); err != nil {
		response.BadRequest(w, services.CodeInvalidProduct, "request body is not valid JSON")
		return
	}

	order, serr := c.orders.CreateOrder(r.Context(), &raw)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	response.OK(w, viewOf(order))
}

type verifyInput struct {
	OrderID          string `json:"orderId"`
	PaymentReference string `json:"paymentReference"`
}

// VerifyPayment confirms payment for a pending order and finalizes it.
func (c *OrderController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var input verifyInput
	if _, err := bind.JSON(r, &input); err != nil {
		response.BadRequest(w, services.CodeInvalidPaymentRef, "request body is not valid JSON")
		return
	}

	order, serr := c.orders.VerifyPayment(r.Context(), input.OrderID, input.PaymentReference)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	response.OK(w, viewOf(order))
}

// ProcessPayment is the single-call checkout for already-captured
// payments.
func (c *OrderController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var raw services.RawOrderRequest
	if _, err := bind.JSON(r, &raw); err != nil {
		response.BadRequest(w, services.CodeInvalidProduct, "request body is not valid JSON")
		return
	}

	order, serr := c.orders.ProcessPayment(r.Context(), &raw)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	response.OK(w, viewOf(order))
}

// Show returns an order by its public identifier. Admin only.
func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	order, serr := c.orders.GetOrder(chi.URLParam(r, "orderID"))
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	response.OK(w, viewOf(order))
}
