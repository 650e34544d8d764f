package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/washwala/laundry-api/cache"
	"github.com/washwala/laundry-api/middleware"
	"github.com/washwala/laundry-api/services"
	"github.com/washwala/laundry-api/tests/testutil"
)

const testActorHeader = "X-Test-Actor"

type testServer struct {
	router *gin.Engine
	f      *testutil.Fixture
	actors map[string]services.Actor
	orders *services.OrderService
}

// stubAuth stands in for the JWT middleware: the X-Test-Actor header names
// one of the fixture actors
func (s *testServer) stubAuth(c *gin.Context) {
	actor, ok := s.actors[c.GetHeader(testActorHeader)]
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}
	middleware.SetActor(c, actor)
	c.Next()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db)
	provider, err := cache.NewMemoryProvider(100)
	require.NoError(t, err)

	store := services.NewStoreNotifier(db)
	pricing := services.NewPricingCalculator(db, services.DefaultPricingConfig())
	promos := services.NewPromoService(db, nil)
	stats := services.NewStatsService(db, nil)
	orders := services.NewOrderService(db, pricing, promos, stats, store, nil)
	reviews := services.NewReviewService(db, orders, stats, store, nil)
	catalog := services.NewCatalogService(db, provider, time.Minute, stats, nil)

	s := &testServer{
		router: gin.New(),
		f:      f,
		orders: orders,
		actors: map[string]services.Actor{
			"customer": services.Customer(f.Customer.ID),
			"other":    services.Customer(f.OtherCustomer.ID),
			"laundry":  services.LaundryOwner(f.Owner.ID, f.Laundry.ID),
			"rival":    services.LaundryOwner(f.OtherOwner.ID, f.OtherLaundry.ID),
			"admin":    services.Admin(f.Admin.ID),
		},
	}

	orderCtl := NewOrderController(orders)
	reviewCtl := NewReviewController(reviews)
	promoCtl := NewPromoController(promos)
	laundryCtl := NewLaundryController(catalog, stats)
	notificationCtl := NewNotificationController(services.NewNotificationService(db))
	userCtl := NewUserController(services.NewUserService(db))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/order-transitions", orderCtl.Transitions)
		v1.GET("/catalog/categories", laundryCtl.Categories)
		v1.GET("/catalog/items", laundryCtl.ClothingItems)
		v1.GET("/laundries/:id", laundryCtl.Get)
		v1.GET("/laundries/:id/services", laundryCtl.Services)
		v1.GET("/laundries/:id/reviews", reviewCtl.ListForLaundry)
		v1.PUT("/laundries/:id/pricing", s.stubAuth, laundryCtl.UpsertPricing)
		v1.PATCH("/laundries/:id/services/:serviceId", s.stubAuth, laundryCtl.SetAvailability)
		v1.POST("/laundries/:id/stats/recompute", s.stubAuth, laundryCtl.RecomputeStats)

		v1.GET("/users/me", s.stubAuth, userCtl.GetMyProfile)
		v1.PUT("/users/me", s.stubAuth, userCtl.UpdateMyProfile)

		v1.POST("/promos/validate", s.stubAuth, promoCtl.Validate)
		v1.POST("/admin/promos", s.stubAuth, promoCtl.Create)
		v1.GET("/admin/promos", s.stubAuth, promoCtl.List)
		v1.PUT("/admin/promos/:id", s.stubAuth, promoCtl.Update)
		v1.DELETE("/admin/promos/:id", s.stubAuth, promoCtl.Deactivate)

		v1.POST("/orders", s.stubAuth, orderCtl.Create)
		v1.POST("/orders/quote", s.stubAuth, orderCtl.Quote)
		v1.GET("/orders", s.stubAuth, orderCtl.List)
		v1.GET("/orders/:id", s.stubAuth, orderCtl.Get)
		v1.GET("/orders/:id/timeline", s.stubAuth, orderCtl.Timeline)
		v1.GET("/orders/:id/history", s.stubAuth, orderCtl.History)
		v1.PATCH("/orders/:id/status", s.stubAuth, orderCtl.UpdateStatus)
		v1.POST("/orders/:id/cancel", s.stubAuth, orderCtl.Cancel)
		v1.POST("/orders/:id/review", s.stubAuth, reviewCtl.Create)

		v1.PUT("/reviews/:id", s.stubAuth, reviewCtl.Update)
		v1.POST("/reviews/:id/reply", s.stubAuth, reviewCtl.Reply)

		v1.GET("/notifications", s.stubAuth, notificationCtl.List)
		v1.PATCH("/notifications/:id/read", s.stubAuth, notificationCtl.MarkRead)
	}
	return s
}

// do sends body as JSON on behalf of the named actor ("" for anonymous) and
// decodes the response envelope
func (s *testServer) do(t *testing.T, actor, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(testActorHeader, actor)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response
}

func (s *testServer) orderBody() map[string]any {
	return map[string]any{
		"laundry_id":     s.f.Laundry.ID,
		"pickup_address": "House 12, Street 4, Gulberg III, Lahore",
		"pickup_date":    testutil.PickupDate().Format(time.RFC3339),
		"items": []map[string]any{
			{"service_id": s.f.WashService.ID, "clothing_item_id": s.f.Shirt.ID, "quantity": 2},
			{"service_id": s.f.WashService.ID, "clothing_item_id": s.f.MixedLoad.ID, "weight_kg": "2.5"},
		},
	}
}

// placeOrder creates an order over HTTP as the customer and returns its id
func (s *testServer) placeOrder(t *testing.T) uint {
	t.Helper()
	status, resp := s.do(t, "customer", http.MethodPost, "/api/v1/orders", s.orderBody())
	require.Equal(t, http.StatusCreated, status, resp)
	return uint(data(t, resp)["id"].(float64))
}

func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return d
}

func errorCode(resp map[string]any) string {
	e, _ := resp["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}
