package services

import (
	"regexp"
	"strings"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
)

const (
	// MinQuantity and MaxQuantity bound a single line item.
	MinQuantity = 1
	MaxQuantity = 100

	// MinShipping and MaxShipping bound a caller-supplied shipping cost.
	MinShipping = 0.0
	MaxShipping = 100.0

	// DefaultShipping applies when the request omits a shipping cost.
	DefaultShipping = 5.0
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	namePattern       = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	paymentRefPattern = regexp.MustCompile(`^[A-Z0-9]{17}$`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// RawItem is one unvalidated line of an incoming order request.
type RawItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// RawOrderRequest is the untrusted payload of a checkout call. Field names
// follow the storefront front end's camelCase convention.
type RawOrderRequest struct {
	Items            []RawItem `json:"items"`
	CustomerEmail    string    `json:"customerEmail"`
	CustomerName     string    `json:"customerName"`
	PaymentReference string    `json:"paymentReference"`
	ShippingCost     *float64  `json:"shippingCost"`
}

// ValidatedItem pairs a catalog product with a quantity that passed
// validation.
type ValidatedItem struct {
	Product  models.Product
	Quantity int
}

// ValidatedOrder is the trusted result of validating a raw request. All
// fields are sanitized and every product is resolved against the catalog.
type ValidatedOrder struct {
	Items            []ValidatedItem
	CustomerEmail    string
	CustomerName     string
	PaymentReference string
	ShippingCost     float64
}

// Subtotal is the items total excluding shipping.
func (v *ValidatedOrder) Subtotal() float64 {
	var sum float64
	for _, it := range v.Items {
		sum += it.Product.Price * float64(it.Quantity)
	}
	return sum
}

// Total is the amount the customer is charged, shipping included.
func (v *ValidatedOrder) Total() float64 {
	return v.Subtotal() + v.ShippingCost
}

// CatalogLookup resolves a product by catalog name. It returns (nil, nil)
// for unknown products.
type CatalogLookup interface {
	FindByName(name string) (*models.Product, error)
}

// OrderValidator turns raw checkout payloads into validated orders. It
// fails fast: the first rule violation is returned and later fields are
// not inspected.
type OrderValidator struct {
	catalog CatalogLookup
}

func NewOrderValidator(catalog CatalogLookup) *OrderValidator {
	return &OrderValidator{catalog: catalog}
}

// Validate checks every field of a raw request. requireRef controls whether
// a payment reference must be present; order creation happens before the
// customer pays, so it validates the reference only when one is supplied.
func (ov *OrderValidator) Validate(raw *RawOrderRequest, requireRef bool) (*ValidatedOrder, *Error) {
	if len(raw.Items) == 0 {
		return nil, NewError(CodeInvalidProduct, "order must contain at least one item")
	}

	out := &ValidatedOrder{ShippingCost: DefaultShipping}
	for _, item := range raw.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, NewError(CodeInvalidProduct, "product name is required")
		}
		product, err := ov.catalog.FindByName(name)
		if err != nil {
			return nil, storageError(err)
		}
		if product == nil {
			return nil, NewError(CodeInvalidProduct, "unknown product: %s", name)
		}
		if item.Quantity < MinQuantity || item.Quantity > MaxQuantity {
			return nil, NewError(CodeInvalidQuantity,
				"quantity for %s must be between %d and %d", name, MinQuantity, MaxQuantity)
		}
		out.Items = append(out.Items, ValidatedItem{Product: *product, Quantity: item.Quantity})
	}

	email := strings.TrimSpace(raw.CustomerEmail)
	if !emailPattern.MatchString(email) {
		return nil, NewError(CodeInvalidEmail, "a valid email address is required")
	}
	out.CustomerEmail = email

	name, ok := SanitizeName(raw.CustomerName)
	if !ok {
		return nil, NewError(CodeInvalidName,
			"name must be 2-100 letters, spaces, hyphens or apostrophes")
	}
	out.CustomerName = name

	ref := strings.TrimSpace(raw.PaymentReference)
	if ref == "" && requireRef {
		return nil, NewError(CodeInvalidPaymentRef, "payment reference is required")
	}
	if ref != "" && !paymentRefPattern.MatchString(ref) {
		return nil, NewError(CodeInvalidPaymentRef, "payment reference is malformed")
	}
	out.PaymentReference = ref

	if raw.ShippingCost != nil {
		if *raw.ShippingCost < MinShipping || *raw.ShippingCost > MaxShipping {
			return nil, NewError(CodeInvalidShipping,
				"shipping cost must be between %.2f and %.2f", MinShipping, MaxShipping)
		}
		out.ShippingCost = *raw.ShippingCost
	}

	return out, nil
}

// SanitizeName strips HTML tags and surrounding whitespace, then checks
// the result is a plausible human name. Returns the cleaned name and
// whether it passed.
func SanitizeName(name string) (string, bool) {
	clean := htmlTagPattern.ReplaceAllString(name, "")
	clean = strings.TrimSpace(clean)
	if len(clean) < 2 || len(clean) > 100 {
		return "", false
	}
	if !namePattern.MatchString(clean) {
		return "", false
	}
	return clean, true
}

// ValidatePaymentRef checks a standalone payment reference, as supplied to
// the verification endpoint.
func ValidatePaymentRef(ref string) (string, *Error) {
	ref = strings.TrimSpace(ref)
	if !paymentRefPattern.MatchString(ref) {
		return "", NewError(CodeInvalidPaymentRef, "payment reference is malformed")
	}
	return ref, nil
}
