package services

import "fmt"

// Stable error codes returned to API clients. Front-end code matches on
// these, so they are part of the interface and must not change.
const (
	CodeInvalidProduct     = "invalid_product"
	CodeInvalidQuantity    = "invalid_quantity"
	CodeInvalidEmail       = "invalid_email"
	CodeInvalidName        = "invalid_name"
	CodeInvalidPaymentRef  = "invalid_payment_reference"
	CodeInvalidShipping    = "invalid_shipping"
	CodeInsufficientStock  = "insufficient_stock"
	CodePaymentNotComplete = "payment_not_completed"
	CodePaymentAuthority   = "payment_authority"
	CodeOrderNotFound      = "order_not_found"
	CodeProductNotFound    = "product_not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodeStorageError       = "storage_error"
)

// Error is a service-level failure carrying a stable machine code alongside
// the human message. Controllers map codes to HTTP statuses.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a service error with the given code.
func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func storageError(err error) *Error {
	return &Error{Code: CodeStorageError, Message: "a storage error occurred: " + err.Error()}
}
