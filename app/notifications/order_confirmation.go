// Package notifications holds the customer-facing emails. Each mail is a
// queue job so delivery happens on a worker, never inside a request or a
// database transaction.
package notifications

import (
	"fmt"
	"strings"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/mail"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/queue"
)

// OrderConfirmationJob renders and sends the order confirmation email.
// Fields are exported so the job survives the queue's JSON round trip.
type OrderConfirmationJob struct {
	OrderID       string  `json:"order_id"`
	CustomerEmail string  `json:"customer_email"`
	CustomerName  string  `json:"customer_name"`
	TotalAmount   float64 `json:"total_amount"`
	Shipping      float64 `json:"shipping"`
	Lines         []Line  `json:"lines"`
}

// Line is one row of the confirmation's order table.
type Line struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// RegisterJobs makes every notification job known to the queue. Call once
// at boot, before workers start.
func RegisterJobs() {
	queue.Register("*notifications.OrderConfirmationJob", func() queue.Job {
		return &OrderConfirmationJob{}
	})
}

func (j *OrderConfirmationJob) Handle() error {
	return mail.To(j.CustomerEmail).
		Subject(fmt.Sprintf("Your Nomad Detroit Coffee order %s", shortID(j.OrderID))).
		Body(j.html()).
		Text(j.text()).
		Send()
}

func (j *OrderConfirmationJob) html() string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">`)
	b.WriteString(`<h2 style="color:#3b2a1a">Thanks for your order!</h2>`)
	fmt.Fprintf(&b, `<p>Hi %s,</p>`, j.CustomerName)
	fmt.Fprintf(&b, `<p>We've received your payment and your coffee is on its way to the roaster. Your order number is <strong>%s</strong>.</p>`, j.OrderID)
	b.WriteString(`<table style="width:100%;border-collapse:collapse">`)
	b.WriteString(`<tr><th align="left" style="border-bottom:1px solid #ccc;padding:6px 0">Item</th><th align="right" style="border-bottom:1px solid #ccc;padding:6px 0">Qty</th><th align="right" style="border-bottom:1px solid #ccc;padding:6px 0">Price</th></tr>`)
	for _, line := range j.Lines {
		fmt.Fprintf(&b,
			`<tr><td style="padding:6px 0">%s</td><td align="right">%d</td><td align="right">$%.2f</td></tr>`,
			line.Name, line.Quantity, line.UnitPrice*float64(line.Quantity))
	}
	fmt.Fprintf(&b, `<tr><td style="padding:6px 0">Shipping</td><td></td><td align="right">$%.2f</td></tr>`, j.Shipping)
	fmt.Fprintf(&b, `<tr><td style="padding:6px 0;border-top:1px solid #ccc"><strong>Total</strong></td><td style="border-top:1px solid #ccc"></td><td align="right" style="border-top:1px solid #ccc"><strong>$%.2f</strong></td></tr>`, j.TotalAmount)
	b.WriteString(`</table>`)
	b.WriteString(`<p>We roast to order, so your beans will ship within a few days of roasting. Questions? Just reply to this email.</p>`)
	b.WriteString(`<p style="color:#777;font-size:13px">You can also find us most weekends at Detroit-area farmers markets.</p>`)
	b.WriteString(`<p>— Nomad Detroit Coffee</p>`)
	b.WriteString(`</div>`)
	return b.String()
}

func (j *OrderConfirmationJob) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", j.CustomerName)
	fmt.Fprintf(&b, "Thanks for your order! Your order number is %s.\n\n", j.OrderID)
	for _, line := range j.Lines {
		fmt.Fprintf(&b, "  %dx %s  $%.2f\n", line.Quantity, line.Name,
			line.UnitPrice*float64(line.Quantity))
	}
	fmt.Fprintf(&b, "  Shipping  $%.2f\n", j.Shipping)
	fmt.Fprintf(&b, "  Total     $%.2f\n\n", j.TotalAmount)
	b.WriteString("We roast to order, so your beans will ship within a few days of roasting.\n")
	b.WriteString("You can also find us most weekends at Detroit-area farmers markets.\n\n— Nomad Detroit Coffee\n")
	return b.String()
}

func shortID(orderID string) string {
	if len(orderID) >= 8 {
		return orderID[:8]
	}
	return orderID
}

// QueueNotifier dispatches confirmation jobs onto the queue. It satisfies
// the order service's Notifier.
type QueueNotifier struct{}

func (QueueNotifier) OrderCompleted(order *models.Order, items []models.OrderItem) error {
	job := &OrderConfirmationJob{
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		TotalAmount:   order.TotalAmount,
		Shipping:      order.ShippingAmount,
	}
	for _, item := range items {
		job.Lines = append(job.Lines, Line{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return queue.Dispatch(job)
}
