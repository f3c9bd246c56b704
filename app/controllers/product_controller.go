package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/bind"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/response"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/validate"
)

// ProductController serves the public catalog and the admin stock
// endpoint.
type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Index lists every product currently in stock.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	products, err := c.catalog.ListAvailable()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.OK(w, map[string]any{"products": products})
}

// Show returns a single product by id, even when out of stock.
func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		response.NotFound(w, services.CodeProductNotFound, "no such product")
		return
	}
	product, err := c.catalog.GetByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.OK(w, product)
}

type stockInput struct {
	StockQuantity *int `json:"stock_quantity" validate:"required,between=0,10000"`
}

// UpdateStock overwrites a product's stock level. Admin only.
func (c *ProductController) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		response.NotFound(w, services.CodeProductNotFound, "no such product")
		return
	}

	var input stockInput
	errs, err := bind.JSON(r, &input)
	if err != nil {
		response.BadRequest(w, services.CodeInvalidQuantity, "request body is not valid JSON")
		return
	}
	if len(errs) > 0 {
		response.BadRequest(w, services.CodeInvalidQuantity, validate.First(errs))
		return
	}

	product, serr := c.catalog.SetStock(id, *input.StockQuantity)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	response.OK(w, product)
}

func productID(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
