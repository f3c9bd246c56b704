// Package paypal talks to the PayPal Orders v2 API. It only reads: the
// storefront never captures or refunds, it just checks that a capture the
// browser reported actually happened and matches the order amount.
package paypal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/config"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/httpclient"
)

// Statuses PayPal reports for a checkout order. Only COMPLETED and
// APPROVED count as paid.
const (
	StatusCompleted = "COMPLETED"
	StatusApproved  = "APPROVED"
)

// Client is a PayPal API client. It satisfies the order service's
// PaymentAuthority. A fresh OAuth token is fetched per verification;
// verifications are rare enough that caching one is not worth the expiry
// bookkeeping.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
}

// NewClient builds a client from the loaded configuration.
func NewClient() *Client {
	return &Client{
		baseURL:      strings.TrimRight(config.PayPalBaseURL(), "/"),
		clientID:     config.PayPalClientID(),
		clientSecret: config.PayPalClientSecret(),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Amount struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
	} `json:"purchase_units"`
}

// GetPaymentStatus fetches a checkout order and reports whether it is
// paid. Any transport failure, non-2xx answer, or unparseable body comes
// back as an error so the caller treats the payment as unverified.
func (c *Client) GetPaymentStatus(ctx context.Context, reference string) (*services.PaymentStatus, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := httpclient.Get(c.baseURL+"/v2/checkout/orders/"+reference).
		WithContext(ctx).
		Bearer(token).
		Timeout(10 * time.Second).
		Retry(2, 500*time.Millisecond).
		Send()
	if err != nil {
		return nil, fmt.Errorf("paypal: fetch order %s: %w", reference, err)
	}
	if resp.StatusCode == 404 {
		return &services.PaymentStatus{Reference: reference, Status: "NOT_FOUND"}, nil
	}
	if !resp.OK() {
		return nil, fmt.Errorf("paypal: fetch order %s: status %d", reference, resp.StatusCode)
	}

	var order orderResponse
	if err := resp.JSON(&order); err != nil {
		return nil, fmt.Errorf("paypal: decode order %s: %w", reference, err)
	}

	status := &services.PaymentStatus{
		Reference: order.ID,
		Status:    order.Status,
		Paid:      order.Status == StatusCompleted || order.Status == StatusApproved,
	}
	if len(order.PurchaseUnits) > 0 {
		unit := order.PurchaseUnits[0]
		status.Currency = unit.Amount.CurrencyCode
		amount, err := strconv.ParseFloat(unit.Amount.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("paypal: order %s has unreadable amount %q", reference, unit.Amount.Value)
		}
		status.Amount = amount
	}
	return status, nil
}

// token exchanges the client credentials for an OAuth access token.
func (c *Client) token(ctx context.Context) (string, error) {
	resp, err := httpclient.Post(c.baseURL+"/v1/oauth2/token").
		WithContext(ctx).
		BasicAuth(c.clientID, c.clientSecret).
		Header("Content-Type", "application/x-www-form-urlencoded").
		Body("grant_type=client_credentials").
		Timeout(10 * time.Second).
		Send()
	if err != nil {
		return "", fmt.Errorf("paypal: token request: %w", err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("paypal: token request: status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := resp.JSON(&tok); err != nil {
		return "", fmt.Errorf("paypal: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("paypal: empty access token")
	}
	return tok.AccessToken, nil
}
