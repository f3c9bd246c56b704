package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/app/repositories"
	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/database"
)

// fakeAuthority returns a scripted payment status so tests control what
// the processor says. Safe for concurrent callers.
type fakeAuthority struct {
	mu     sync.Mutex
	status *services.PaymentStatus
	err    error
	calls  int
}

func (f *fakeAuthority) GetPaymentStatus(ctx context.Context, ref string) (*services.PaymentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := *f.status
	s.Reference = ref
	return &s, nil
}

func (f *fakeAuthority) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingNotifier captures confirmation sends instead of queueing mail.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) OrderCompleted(order *models.Order, items []models.OrderItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, order.OrderID)
	return nil
}

func (n *recordingNotifier) sentIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

const testRef = "5O190127TN364715T"

func paidStatus(amount float64) *services.PaymentStatus {
	return &services.PaymentStatus{Status: "COMPLETED", Amount: amount, Currency: "USD", Paid: true}
}

type fixture struct {
	db        *gorm.DB
	svc       *services.OrderService
	products  *repositories.ProductRepository
	authority *fakeAuthority
	notifier  *recordingNotifier
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenWith("sqlite",
		"file:"+filepath.Join(t.TempDir(), "test.db")+"?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{}))
	require.NoError(t, db.Create(&[]models.Product{
		{Name: "Ethiopia", Price: 22.00, StockQuantity: 100},
		{Name: "Guatemala", Price: 22.00, StockQuantity: 100},
	}).Error)

	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	authority := &fakeAuthority{status: paidStatus(71.00)}
	notifier := &recordingNotifier{}
	svc := services.NewOrderService(db, productRepo, orderRepo, authority, notifier)
	return &fixture{
		db: db, svc: svc, products: productRepo,
		authority: authority, notifier: notifier,
	}
}

func (f *fixture) stockOf(t *testing.T, name string) int {
	t.Helper()
	p, err := f.products.FindByName(name)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}

func (f *fixture) createPending(t *testing.T) *models.Order {
	t.Helper()
	order, serr := f.svc.CreateOrder(context.Background(), validRequest())
	require.Nil(t, serr)
	return order
}

func TestCreateOrderPendingLeavesStockAlone(t *testing.T) {
	f := setup(t)

	order := f.createPending(t)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.OrderID)
	assert.InDelta(t, 71.00, order.TotalAmount, 0.001)
	assert.Equal(t, 100, f.stockOf(t, "Ethiopia"), "pending orders reserve nothing")
	assert.Empty(t, f.notifier.sentIDs())
}

func TestCreateOrderChecksAvailability(t *testing.T) {
	f := setup(t)
	p, err := f.products.FindByName("Ethiopia")
	require.NoError(t, err)
	_, err = f.products.SetStock(p.ID, 2)
	require.NoError(t, err)

	_, serr := f.svc.CreateOrder(context.Background(), validRequest()) // wants 3
	require.NotNil(t, serr)
	assert.Equal(t, services.CodeInsufficientStock, serr.Code)

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVerifyPaymentCompletesOrder(t *testing.T) {
	f := setup(t)
	order := f.createPending(t)

	done, serr := f.svc.VerifyPayment(context.Background(), order.OrderID, testRef)
	require.Nil(t, serr)
	assert.Equal(t, models.OrderStatusCompleted, done.Status)
	require.NotNil(t, done.PaymentReference)
	assert.Equal(t, testRef, *done.PaymentReference)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, 97, f.stockOf(t, "Ethiopia"))
	assert.Equal(t, []string{order.OrderID}, f.notifier.sentIDs())
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	f := setup(t)
	order := f.createPending(t)

	_, serr := f.svc.VerifyPayment(context.Background(), order.OrderID, testRef)
	require.Nil(t, serr)
	again, serr := f.svc.VerifyPayment(context.Background(), order.OrderID, testRef)
	require.Nil(t, serr)

	assert.Equal(t, models.OrderStatusCompleted, again.Status)
	require.Len(t, again.Items, 1, "repeat verification returns the same line items")
	assert.Equal(t, "Ethiopia", again.Items[0].Name)
	assert.Equal(t, 97, f.stockOf(t, "Ethiopia"), "stock moves exactly once")
	assert.Len(t, f.notifier.sentIDs(), 1, "confirmation mail sent exactly once")
	assert.Equal(t, 1, f.authority.callCount(), "completed orders skip the authority")
}

func TestVerifyPaymentNotCompleted(t *testing.T) {
	f := setup(t)
	order := f.createPending(t)
	f.authority.status = &services.PaymentStatus{Status: "CREATED", Paid: false}

	_, serr := f.svc.VerifyPayment(context.Background(), order.OrderID, testRef)
	require.NotNil(t, serr)
	assert.Equal(t, services.CodePaymentNotComplete, serr.Code)
	assert.Equal(t, 100, f.stockOf(t, "Ethiopia"))
	assert.Empty(t, f.notifier.sentIDs())
}

func TestVerifyPaymentAuthorityDown(t *testing.T) {
	f := setup(t)
	order := f.createPending(t)
	f.authority.err = errors.New("connection refused")

	_, serr := f.svc.VerifyPayment(context.Background(), order.OrderID, testRef)
	require.NotNil(t, serr)
	assert.Equal(t, services.CodePaymentAuthority, serr.Code)
	assert.Equal(t, 100, f.stockOf(t, "Ethiopia"), "unverifiable payments move no stock")
}

func TestVerifyPaymentAmountMismatch(t *testing.T) {
	f := setup(t)
	order := f.createPending(t)
	f.authority.status = paidStatus(5.00)

	_, serr := f.svc.VerifyPayment(context.Background(), order.OrderID, testRef)
	require.NotNil(t, serr)
	assert.Equal(t, services.CodePaymentNotComplete, serr.Code)
	assert.Equal(t, 100, f.stockOf(t, "Ethiopia"))
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	f := setup(t)

	_, serr := f.svc.VerifyPayment(context.Background(),
		"b7e9c9f4-54d3-4c19-bb52-0a9e1cfb4a01", testRef)
	require.NotNil(t, serr)
	assert.Equal(t, services.CodeOrderNotFound, serr.Code)

	_, serr = f.svc.VerifyPayment(context.Background(), "not-a-uuid", testRef)
	require.NotNil(t, serr)
	assert.Equal(t, services.CodeOrderNotFound, serr.Code)
}

func TestProcessPaymentSingleCall(t *testing.T) {
	f := setup(t)

	raw := validRequest()
	raw.PaymentReference = testRef
	order, serr := f.svc.ProcessPayment(context.Background(), raw)
	require.Nil(t, serr)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, 97, f.stockOf(t, "Ethiopia"))
	assert.Equal(t, []string{order.OrderID}, f.notifier.sentIDs())

	// The persisted row carries the full completion state, same as the
	// two-step flow.
	var stored models.Order
	require.NoError(t, f.db.Where("order_id = ?", order.OrderID).First(&stored).Error)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt, "completed orders record their completion time")
	require.NotNil(t, stored.PaymentReference)
	assert.Equal(t, testRef, *stored.PaymentReference)
}

func TestProcessPaymentInsufficientStockRollsBack(t *testing.T) {
	f := setup(t)
	p, err := f.products.FindByName("Ethiopia")
	require.NoError(t, err)
	_, err = f.products.SetStock(p.ID, 2)
	require.NoError(t, err)

	raw := validRequest() // wants 3 units
	raw.PaymentReference = testRef
	_, serr := f.svc.ProcessPayment(context.Background(), raw)
	require.NotNil(t, serr)
	assert.Equal(t, services.CodeInsufficientStock, serr.Code)

	assert.Equal(t, 2, f.stockOf(t, "Ethiopia"), "failed checkout touches no stock")
	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count, "failed checkout leaves no order behind")
	assert.Empty(t, f.notifier.sentIDs())
}

func TestVerifyPaymentLastUnits(t *testing.T) {
	f := setup(t)
	p, err := f.products.FindByName("Ethiopia")
	require.NoError(t, err)
	_, err = f.products.SetStock(p.ID, 3)
	require.NoError(t, err)

	first := f.createPending(t)
	second := f.createPending(t)

	_, serr := f.svc.VerifyPayment(context.Background(), first.OrderID, testRef)
	require.Nil(t, serr)
	assert.Equal(t, 0, f.stockOf(t, "Ethiopia"))

	// The second buyer paid for stock that no longer exists; the
	// conditional decrement rejects the order instead of going negative.
	_, serr = f.svc.VerifyPayment(context.Background(), second.OrderID, "5O190127TN364715A")
	require.NotNil(t, serr)
	assert.Equal(t, services.CodeInsufficientStock, serr.Code)
	assert.Equal(t, 0, f.stockOf(t, "Ethiopia"))
}

func TestVerifyPaymentConcurrentLastUnits(t *testing.T) {
	f := setup(t)
	p, err := f.products.FindByName("Ethiopia")
	require.NoError(t, err)
	_, err = f.products.SetStock(p.ID, 3)
	require.NoError(t, err)

	first := f.createPending(t)
	second := f.createPending(t)

	// Both buyers verify at once; the conditional decrement admits
	// exactly one of them.
	refs := map[string]string{
		first.OrderID:  "5O190127TN364715T",
		second.OrderID: "5O190127TN364715A",
	}
	errCh := make(chan *services.Error, 2)
	var wg sync.WaitGroup
	for _, order := range []*models.Order{first, second} {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			_, serr := f.svc.VerifyPayment(context.Background(), orderID, refs[orderID])
			errCh <- serr
		}(order.OrderID)
	}
	wg.Wait()
	close(errCh)

	var failures []*services.Error
	for serr := range errCh {
		if serr != nil {
			failures = append(failures, serr)
		}
	}
	require.Len(t, failures, 1, "exactly one buyer loses the race")
	assert.Equal(t, services.CodeInsufficientStock, failures[0].Code)
	assert.Equal(t, 0, f.stockOf(t, "Ethiopia"), "stock never goes negative")
	assert.Len(t, f.notifier.sentIDs(), 1, "only the winner is confirmed")
}

func TestGetOrderReturnsItems(t *testing.T) {
	f := setup(t)
	order := f.createPending(t)

	got, serr := f.svc.GetOrder(order.OrderID)
	require.Nil(t, serr)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Ethiopia", got.Items[0].Name)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.InDelta(t, 22.00, got.Items[0].UnitPrice, 0.001)
}
