package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/washwala/laundry-api/cache"
	"github.com/washwala/laundry-api/models"
	"github.com/washwala/laundry-api/tests/testutil"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingNotifier) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	ctx      context.Context
	db       *gorm.DB
	f        *testutil.Fixture
	notifier *recordingNotifier

	pricing *PricingCalculator
	promos  *PromoService
	stats   *StatsService
	orders  *OrderService
	reviews *ReviewService
	catalog *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	provider, err := cache.NewMemoryProvider(100)
	require.NoError(t, err)

	e := &testEnv{
		ctx:      context.Background(),
		db:       db,
		f:        testutil.Seed(t, db),
		notifier: &recordingNotifier{},
	}
	e.pricing = NewPricingCalculator(db, DefaultPricingConfig())
	e.promos = NewPromoService(db, nil)
	e.stats = NewStatsService(db, nil)
	e.orders = NewOrderService(db, e.pricing, e.promos, e.stats, e.notifier, nil)
	e.reviews = NewReviewService(db, e.orders, e.stats, e.notifier, nil)
	e.catalog = NewCatalogService(db, provider, time.Minute, e.stats, nil)
	return e
}

func (e *testEnv) customer() Actor { return Customer(e.f.Customer.ID) }
func (e *testEnv) other() Actor    { return Customer(e.f.OtherCustomer.ID) }
func (e *testEnv) laundry() Actor  { return LaundryOwner(e.f.Owner.ID, e.f.Laundry.ID) }
func (e *testEnv) rival() Actor    { return LaundryOwner(e.f.OtherOwner.ID, e.f.OtherLaundry.ID) }
func (e *testEnv) admin() Actor    { return Admin(e.f.Admin.ID) }

// standardItems is 2 shirts at 50 plus 2.5kg of mixed load at 40: subtotal 200
func (e *testEnv) standardItems() []ItemRequest {
	return []ItemRequest{
		{ServiceID: e.f.WashService.ID, ClothingItemID: e.f.Shirt.ID, Quantity: 2},
		{ServiceID: e.f.WashService.ID, ClothingItemID: e.f.MixedLoad.ID, WeightKg: testutil.Ptr(decimal.RequireFromString("2.5"))},
	}
}

func (e *testEnv) shirts(n int) []ItemRequest {
	return []ItemRequest{{ServiceID: e.f.WashService.ID, ClothingItemID: e.f.Shirt.ID, Quantity: n}}
}

func (e *testEnv) orderInput(items []ItemRequest) CreateOrderInput {
	return CreateOrderInput{
		LaundryID:     e.f.Laundry.ID,
		PickupAddress: "House 12, Street 4, Gulberg III, Lahore",
		PickupDate:    testutil.PickupDate(),
		Items:         items,
	}
}

func (e *testEnv) placeOrder(t *testing.T, actor Actor) *models.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(e.ctx, actor, e.orderInput(e.standardItems()))
	require.NoError(t, err)
	return order
}

// advance drives order through statuses as its laundry
func (e *testEnv) advance(t *testing.T, order *models.Order, statuses ...models.OrderStatus) *models.Order {
	t.Helper()
	for _, s := range statuses {
		var err error
		order, err = e.orders.UpdateStatus(e.ctx, e.laundry(), order.ID, s, "")
		require.NoError(t, err, "transition to %s", s)
	}
	return order
}

var toDelivered = []models.OrderStatus{
	models.StatusAccepted,
	models.StatusPickupScheduled,
	models.StatusPickedUp,
	models.StatusProcessing,
	models.StatusReady,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

func (e *testEnv) reload(t *testing.T, id uint) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, e.db.Preload("Payment").First(&order, id).Error)
	return order
}

func (e *testEnv) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := AsError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code, domainErr.Message)
}
