package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/app/services"
)

// stubCatalog resolves products from a fixed map, standing in for the
// product repository.
type stubCatalog struct {
	products map[string]models.Product
}

func (s *stubCatalog) FindByName(name string) (*models.Product, error) {
	if p, ok := s.products[name]; ok {
		return &p, nil
	}
	return nil, nil
}

func testCatalog() *stubCatalog {
	return &stubCatalog{products: map[string]models.Product{
		"Ethiopia":  {ID: 1, Name: "Ethiopia", Price: 22.00, StockQuantity: 100},
		"Guatemala": {ID: 2, Name: "Guatemala", Price: 22.00, StockQuantity: 100},
	}}
}

func validRequest() *services.RawOrderRequest {
	return &services.RawOrderRequest{
		Items:         []services.RawItem{{Name: "Ethiopia", Quantity: 3}},
		CustomerEmail: "jo@example.com",
		CustomerName:  "Jo Miller",
	}
}

func TestValidateHappyPath(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	out, err := v.Validate(validRequest(), false)
	require.Nil(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Ethiopia", out.Items[0].Product.Name)
	assert.Equal(t, 3, out.Items[0].Quantity)
	assert.Equal(t, 5.00, out.ShippingCost)
	assert.InDelta(t, 71.00, out.Total(), 0.001) // 3 * 22 + 5 shipping
}

func TestValidateUnknownProduct(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	raw := validRequest()
	raw.Items[0].Name = "Kopi Luwak"
	_, err := v.Validate(raw, false)
	require.NotNil(t, err)
	assert.Equal(t, services.CodeInvalidProduct, err.Code)
}

func TestValidateEmptyItems(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	_, err := v.Validate(&services.RawOrderRequest{}, false)
	require.NotNil(t, err)
	assert.Equal(t, services.CodeInvalidProduct, err.Code)
}

func TestValidateQuantityBounds(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	for _, qty := range []int{0, -1, 101} {
		raw := validRequest()
		raw.Items[0].Quantity = qty
		_, err := v.Validate(raw, false)
		require.NotNil(t, err, "quantity %d should be rejected", qty)
		assert.Equal(t, services.CodeInvalidQuantity, err.Code)
	}

	raw := validRequest()
	raw.Items[0].Quantity = 100
	_, err := v.Validate(raw, false)
	assert.Nil(t, err, "quantity 100 is still allowed")
}

func TestValidateEmail(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	for _, email := range []string{"", "nope", "a@b", "a @b.com"} {
		raw := validRequest()
		raw.CustomerEmail = email
		_, err := v.Validate(raw, false)
		require.NotNil(t, err, "email %q should be rejected", email)
		assert.Equal(t, services.CodeInvalidEmail, err.Code)
	}
}

func TestValidateNameSanitized(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	raw := validRequest()
	raw.CustomerName = "  <script>alert(1)</script>Jo O'Brien  "
	out, err := v.Validate(raw, false)
	require.Nil(t, err)
	assert.Equal(t, "Jo O'Brien", out.CustomerName)
}

func TestValidateNameRejected(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	for _, name := range []string{"J", "Jo123", "<b></b>", ""} {
		raw := validRequest()
		raw.CustomerName = name
		_, err := v.Validate(raw, false)
		require.NotNil(t, err, "name %q should be rejected", name)
		assert.Equal(t, services.CodeInvalidName, err.Code)
	}
}

func TestValidatePaymentReference(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	// Optional when not required.
	raw := validRequest()
	_, err := v.Validate(raw, false)
	assert.Nil(t, err)

	// Required for the single-call checkout.
	_, err = v.Validate(validRequest(), true)
	require.NotNil(t, err)
	assert.Equal(t, services.CodeInvalidPaymentRef, err.Code)

	// Malformed references are rejected even when optional.
	raw = validRequest()
	raw.PaymentReference = "lowercase12345678"
	_, err = v.Validate(raw, false)
	require.NotNil(t, err)
	assert.Equal(t, services.CodeInvalidPaymentRef, err.Code)

	raw = validRequest()
	raw.PaymentReference = "5O190127TN364715T"
	out, err := v.Validate(raw, true)
	require.Nil(t, err)
	assert.Equal(t, "5O190127TN364715T", out.PaymentReference)
}

func TestValidateShippingBounds(t *testing.T) {
	v := services.NewOrderValidator(testCatalog())

	negative := -1.0
	raw := validRequest()
	raw.ShippingCost = &negative
	_, err := v.Validate(raw, false)
	require.NotNil(t, err)
	assert.Equal(t, services.CodeInvalidShipping, err.Code)

	free := 0.0
	raw = validRequest()
	raw.ShippingCost = &free
	out, err := v.Validate(raw, false)
	require.Nil(t, err)
	assert.Equal(t, 0.0, out.ShippingCost)
	assert.InDelta(t, 66.00, out.Total(), 0.001)
}
