package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/app/repositories"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/logger"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/metrics"
)

// PaymentStatus is what the payment authority reports about a capture.
type PaymentStatus struct {
	Reference string
	Status    string
	Amount    float64
	Currency  string
	Paid      bool
}

// PaymentAuthority checks a payment reference against the upstream
// processor. An error means the authority could not be reached or gave an
// unusable answer; callers must treat that as "not paid".
type PaymentAuthority interface {
	GetPaymentStatus(ctx context.Context, reference string) (*PaymentStatus, error)
}

// Notifier delivers the order confirmation to the customer. Delivery is
// best-effort: failures are logged and counted, never surfaced to the
// buyer.
type Notifier interface {
	OrderCompleted(order *models.Order, items []models.OrderItem) error
}

// OrderService owns the checkout lifecycle: creating pending orders,
// verifying payments, and the combined create-and-charge path. All stock
// movement happens inside its transactions.
type OrderService struct {
	db        *gorm.DB
	products  *repositories.ProductRepository
	orders    *repositories.OrderRepository
	validator *OrderValidator
	authority PaymentAuthority
	notifier  Notifier
}

func NewOrderService(
	db *gorm.DB,
	products *repositories.ProductRepository,
	orders *repositories.OrderRepository,
	authority PaymentAuthority,
	notifier Notifier,
) *OrderService {
	return &OrderService{
		db:        db,
		products:  products,
		orders:    orders,
		validator: NewOrderValidator(products),
		authority: authority,
		notifier:  notifier,
	}
}

// CreateOrder validates a checkout request and records a pending order.
// No stock is reserved at this stage; the customer has not paid yet, and
// reserving here would let abandoned carts starve the shop.
func (s *OrderService) CreateOrder(ctx context.Context, raw *RawOrderRequest) (*models.Order, *Error) {
	validated, verr := s.validator.Validate(raw, false)
	if verr != nil {
		return nil, verr
	}

	order := buildOrder(validated, models.OrderStatusPending)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check availability under the transaction. The validator's
		// earlier catalog lookup is advisory only; stock can change
		// between validation and commit. Nothing is decremented here,
		// that happens when the payment is verified.
		products := s.products.WithTx(tx)
		for _, item := range validated.Items {
			fresh, err := products.FindByID(item.Product.ID)
			if err != nil {
				return err
			}
			if fresh == nil || fresh.StockQuantity < item.Quantity {
				return NewError(CodeInsufficientStock,
					"insufficient stock for %s", item.Product.Name)
			}
		}

		orders := s.orders.WithTx(tx)
		if err := orders.Create(order); err != nil {
			return err
		}
		items := buildItems(order, validated)
		if err := orders.CreateItems(items); err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		if serr, ok := err.(*Error); ok {
			return nil, serr
		}
		return nil, storageError(err)
	}

	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("order created",
		"order_id", order.OrderID, "total", order.TotalAmount)
	return order, nil
}

// VerifyPayment confirms a pending order once the customer has paid.
// It checks the reference with the payment authority, then completes the
// order and decrements stock in a single transaction. Calling it again for
// an already completed order is a no-op success: the conditional status
// update affects zero rows, so stock moves once and the confirmation mail
// is sent once.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID, paymentRef string) (*models.Order, *Error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, NewError(CodeOrderNotFound, "no such order")
	}
	ref, verr := ValidatePaymentRef(paymentRef)
	if verr != nil {
		return nil, verr
	}

	order, err := s.orders.FindByOrderID(orderID)
	if err != nil {
		return nil, storageError(err)
	}
	if order == nil {
		return nil, NewError(CodeOrderNotFound, "no such order")
	}
	if order.Status == models.OrderStatusCompleted {
		items, err := s.orders.ItemsFor(order)
		if err != nil {
			return nil, storageError(err)
		}
		order.Items = items
		return order, nil
	}

	status, err := s.authority.GetPaymentStatus(ctx, ref)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("authority_error").Inc()
		logger.WithCtx(ctx).Error("payment authority unavailable",
			"order_id", orderID, "error", err)
		return nil, NewError(CodePaymentAuthority, "payment could not be verified")
	}
	if !status.Paid {
		metrics.PaymentVerifications.WithLabelValues("not_completed").Inc()
		return nil, NewError(CodePaymentNotComplete,
			"payment is in state %s", status.Status)
	}
	if !amountsMatch(status.Amount, order.TotalAmount) {
		metrics.PaymentVerifications.WithLabelValues("not_completed").Inc()
		logger.WithCtx(ctx).Warn("payment amount mismatch",
			"order_id", orderID, "expected", order.TotalAmount, "got", status.Amount)
		return nil, NewError(CodePaymentNotComplete, "payment amount does not match order")
	}

	completed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		transitioned, err := orders.MarkCompleted(orderID, ref)
		if err != nil {
			return err
		}
		if !transitioned {
			// A concurrent verification won the race.
			return nil
		}
		items, err := orders.ItemsFor(order)
		if err != nil {
			return err
		}
		products := s.products.WithTx(tx)
		for _, item := range items {
			ok, err := products.DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewError(CodeInsufficientStock,
					"insufficient stock for %s", item.Name)
			}
		}
		order.Items = items
		completed = true
		return nil
	})
	if err != nil {
		if serr, ok := err.(*Error); ok {
			return nil, serr
		}
		return nil, storageError(err)
	}

	reloaded, err := s.orders.FindByOrderID(orderID)
	if err == nil && reloaded != nil {
		reloaded.Items = order.Items
		order = reloaded
	}
	if completed {
		metrics.OrdersCompleted.Inc()
		metrics.PaymentVerifications.WithLabelValues("completed").Inc()
		s.notify(ctx, order)
	}
	return order, nil
}

// ProcessPayment is the single-call checkout: the customer has already
// paid through the processor, so the order is validated, the payment
// checked, and stock reserved together with the completed order in one
// transaction.
func (s *OrderService) ProcessPayment(ctx context.Context, raw *RawOrderRequest) (*models.Order, *Error) {
	validated, verr := s.validator.Validate(raw, true)
	if verr != nil {
		return nil, verr
	}

	status, err := s.authority.GetPaymentStatus(ctx, validated.PaymentReference)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("authority_error").Inc()
		logger.WithCtx(ctx).Error("payment authority unavailable", "error", err)
		return nil, NewError(CodePaymentAuthority, "payment could not be verified")
	}
	if !status.Paid {
		metrics.PaymentVerifications.WithLabelValues("not_completed").Inc()
		return nil, NewError(CodePaymentNotComplete,
			"payment is in state %s", status.Status)
	}
	if !amountsMatch(status.Amount, validated.Total()) {
		metrics.PaymentVerifications.WithLabelValues("not_completed").Inc()
		return nil, NewError(CodePaymentNotComplete, "payment amount does not match order")
	}

	order := buildOrder(validated, models.OrderStatusCompleted)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		for _, item := range validated.Items {
			ok, err := products.DecrementStock(item.Product.ID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewError(CodeInsufficientStock,
					"insufficient stock for %s", item.Product.Name)
			}
		}
		orders := s.orders.WithTx(tx)
		if err := orders.Create(order); err != nil {
			return err
		}
		items := buildItems(order, validated)
		if err := orders.CreateItems(items); err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		if serr, ok := err.(*Error); ok {
			return nil, serr
		}
		return nil, storageError(err)
	}

	metrics.OrdersCreated.Inc()
	metrics.OrdersCompleted.Inc()
	metrics.PaymentVerifications.WithLabelValues("completed").Inc()
	logger.WithCtx(ctx).Info("order completed",
		"order_id", order.OrderID, "total", order.TotalAmount)
	s.notify(ctx, order)
	return order, nil
}

// GetOrder looks up an order with its items by public identifier.
func (s *OrderService) GetOrder(orderID string) (*models.Order, *Error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, NewError(CodeOrderNotFound, "no such order")
	}
	order, err := s.orders.FindByOrderID(orderID)
	if err != nil {
		return nil, storageError(err)
	}
	if order == nil {
		return nil, NewError(CodeOrderNotFound, "no such order")
	}
	items, err := s.orders.ItemsFor(order)
	if err != nil {
		return nil, storageError(err)
	}
	order.Items = items
	return order, nil
}

// notify hands the confirmation off after the transaction has committed.
// Mail must never roll back an order, so errors only log and count.
func (s *OrderService) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderCompleted(order, order.Items); err != nil {
		metrics.MailFailures.Inc()
		logger.WithCtx(ctx).Error("confirmation mail failed",
			"order_id", order.OrderID, "error", err)
	}
}

func buildOrder(v *ValidatedOrder, status models.OrderStatus) *models.Order {
	order := &models.Order{
		OrderID:        uuid.NewString(),
		CustomerEmail:  v.CustomerEmail,
		CustomerName:   v.CustomerName,
		TotalAmount:    v.Total(),
		ShippingAmount: v.ShippingCost,
		Status:         status,
	}
	// completed_at is set iff the order is completed, on every path.
	if status == models.OrderStatusCompleted {
		now := time.Now()
		order.CompletedAt = &now
		if v.PaymentReference != "" {
			ref := v.PaymentReference
			order.PaymentReference = &ref
		}
	}
	return order
}

func buildItems(order *models.Order, v *ValidatedOrder) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, models.OrderItem{
			OrderRef:  order.ID,
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
		})
	}
	return items
}

// amountsMatch compares money values with a one-cent tolerance, which is
// enough to absorb decimal-string round trips through the processor.
func amountsMatch(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}
