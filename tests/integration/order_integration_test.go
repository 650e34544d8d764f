package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/washwala/laundry-api/cache"
	"github.com/washwala/laundry-api/config"
	"github.com/washwala/laundry-api/controllers"
	"github.com/washwala/laundry-api/middleware"
	"github.com/washwala/laundry-api/routes"
	"github.com/washwala/laundry-api/services"
	"github.com/washwala/laundry-api/tests/testutil"
)

// OrderIntegrationTestSuite drives the order API through the real JWT middleware
type OrderIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
	cfg    *config.Config
	f      *testutil.Fixture
}

// SetupSuite runs once before all tests
func (suite *OrderIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.cfg = &config.Config{
		GoEnv:       "test",
		JWTSecret:   "integration-secret-0123456789",
		JWTIssuer:   "washwala-auth",
		JWTAudience: "washwala-api",
	}
}

// SetupTest gives every test a fresh database and router
func (suite *OrderIntegrationTestSuite) SetupTest() {
	db := testutil.NewTestDB(suite.T())
	suite.f = testutil.Seed(suite.T(), db)

	provider, err := cache.NewMemoryProvider(64)
	suite.Require().NoError(err)
	auth, err := middleware.EnsureValidToken(suite.cfg)
	suite.Require().NoError(err)

	notifier := services.NewStoreNotifier(db)
	stats := services.NewStatsService(db, nil)
	promos := services.NewPromoService(db, nil)
	orders := services.NewOrderService(db, services.NewPricingCalculator(db, services.DefaultPricingConfig()), promos, stats, notifier, nil)
	reviews := services.NewReviewService(db, orders, stats, notifier, nil)
	catalog := services.NewCatalogService(db, provider, time.Minute, stats, nil)

	suite.router = gin.New()
	routes.Register(suite.router.Group("/api/v1"), routes.Controllers{
		Orders:        controllers.NewOrderController(orders),
		Reviews:       controllers.NewReviewController(reviews),
		Promos:        controllers.NewPromoController(promos),
		Laundries:     controllers.NewLaundryController(catalog, stats),
		Notifications: controllers.NewNotificationController(services.NewNotificationService(db)),
		Users:         controllers.NewUserController(services.NewUserService(db)),
	}, auth)
}

func (suite *OrderIntegrationTestSuite) token(actor services.Actor) string {
	token, err := middleware.IssueToken(suite.cfg, actor, time.Hour)
	suite.Require().NoError(err)
	return token
}

func (suite *OrderIntegrationTestSuite) customer() string {
	return suite.token(services.Customer(suite.f.Customer.ID))
}

func (suite *OrderIntegrationTestSuite) laundry() string {
	return suite.token(services.LaundryOwner(suite.f.Owner.ID, suite.f.Laundry.ID))
}

// request sends body as JSON with the bearer token and decodes the envelope
func (suite *OrderIntegrationTestSuite) request(token, method, path string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response
}

func (suite *OrderIntegrationTestSuite) orderBody(shirts int, promo string) map[string]interface{} {
	body := map[string]interface{}{
		"laundry_id":     suite.f.Laundry.ID,
		"pickup_address": "House 12, Street 4, Gulberg III, Lahore",
		"pickup_date":    testutil.PickupDate().Format(time.RFC3339),
		"items": []map[string]interface{}{
			{"service_id": suite.f.WashService.ID, "clothing_item_id": suite.f.Shirt.ID, "quantity": shirts},
		},
	}
	if promo != "" {
		body["promo_code"] = promo
	}
	return body
}

// TestOrderWorkflow_PlaceDeliverReview walks an order from placement to completion
func (suite *OrderIntegrationTestSuite) TestOrderWorkflow_PlaceDeliverReview() {
	suite.f.Welcome50(suite.T())

	status, resp := suite.request(suite.customer(), http.MethodPost, "/api/v1/orders", suite.orderBody(10, "welcome50"))
	suite.Require().Equal(http.StatusCreated, status, resp)
	order := resp["data"].(map[string]interface{})
	assert.Equal(suite.T(), "500", order["subtotal"])
	assert.Equal(suite.T(), "200", order["discount"])
	assert.Equal(suite.T(), "100", order["delivery_fee"])
	assert.Equal(suite.T(), "400", order["total_amount"])
	assert.Equal(suite.T(), "PENDING", order["status"])
	orderID := int(order["id"].(float64))
	statusPath := fmt.Sprintf("/api/v1/orders/%d/status", orderID)

	status, _ = suite.request(suite.customer(), http.MethodPatch, statusPath, map[string]interface{}{"status": "ACCEPTED"})
	assert.Equal(suite.T(), http.StatusForbidden, status, "customers cannot drive the workflow")

	for _, next := range []string{"ACCEPTED", "PICKUP_SCHEDULED", "PICKED_UP", "PROCESSING", "READY", "OUT_FOR_DELIVERY", "DELIVERED"} {
		status, resp = suite.request(suite.laundry(), http.MethodPatch, statusPath, map[string]interface{}{"status": next})
		suite.Require().Equal(http.StatusOK, status, resp)
		assert.Equal(suite.T(), next, resp["data"].(map[string]interface{})["status"])
	}

	status, resp = suite.request(suite.laundry(), http.MethodPatch, statusPath, map[string]interface{}{"status": "COMPLETED"})
	assert.Equal(suite.T(), http.StatusConflict, status)

	status, resp = suite.request(suite.customer(), http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/review", orderID), map[string]interface{}{"rating": 5})
	suite.Require().Equal(http.StatusCreated, status, resp)

	status, resp = suite.request(suite.customer(), http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	suite.Require().Equal(http.StatusOK, status)
	order = resp["data"].(map[string]interface{})
	assert.Equal(suite.T(), "COMPLETED", order["status"])
	assert.Equal(suite.T(), "COMPLETED", order["payment"].(map[string]interface{})["status"])

	status, resp = suite.request(suite.customer(), http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/timeline", orderID), nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Len(suite.T(), resp["data"], 9)
}

// TestListOrders_ScopedToCaller checks that each party sees only its own orders
func (suite *OrderIntegrationTestSuite) TestListOrders_ScopedToCaller() {
	for i := 1; i <= 3; i++ {
		status, resp := suite.request(suite.customer(), http.MethodPost, "/api/v1/orders", suite.orderBody(i, ""))
		suite.Require().Equal(http.StatusCreated, status, resp)
	}

	status, resp := suite.request(suite.customer(), http.MethodGet, "/api/v1/orders?page=1&page_size=2", nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Len(suite.T(), resp["data"], 2)
	pagination := resp["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(3), pagination["total"])

	status, resp = suite.request(suite.laundry(), http.MethodGet, "/api/v1/orders", nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Len(suite.T(), resp["data"], 3)

	other := suite.token(services.Customer(suite.f.OtherCustomer.ID))
	status, resp = suite.request(other, http.MethodGet, "/api/v1/orders", nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Empty(suite.T(), resp["data"])

	rival := suite.token(services.LaundryOwner(suite.f.OtherOwner.ID, suite.f.OtherLaundry.ID))
	status, resp = suite.request(rival, http.MethodGet, "/api/v1/orders", nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Empty(suite.T(), resp["data"])
}

// TestCancelOrder_ByCustomer cancels a pending order and refuses to cancel it twice
func (suite *OrderIntegrationTestSuite) TestCancelOrder_ByCustomer() {
	status, resp := suite.request(suite.customer(), http.MethodPost, "/api/v1/orders", suite.orderBody(2, ""))
	suite.Require().Equal(http.StatusCreated, status, resp)
	cancelPath := fmt.Sprintf("/api/v1/orders/%d/cancel", int(resp["data"].(map[string]interface{})["id"].(float64)))

	status, resp = suite.request(suite.customer(), http.MethodPost, cancelPath, map[string]interface{}{"reason": "Changed my mind"})
	suite.Require().Equal(http.StatusOK, status, resp)
	order := resp["data"].(map[string]interface{})
	assert.Equal(suite.T(), "CANCELLED", order["status"])
	assert.Equal(suite.T(), "Changed my mind", order["cancellation_reason"])

	status, resp = suite.request(suite.customer(), http.MethodPost, cancelPath, map[string]interface{}{"reason": "Changed my mind again"})
	assert.Equal(suite.T(), http.StatusConflict, status)
	assert.Equal(suite.T(), services.CodeCancellationNotAllowed, resp["error"].(map[string]interface{})["code"])

	// the reason is checked before the order's state
	status, resp = suite.request(suite.customer(), http.MethodPost, cancelPath, map[string]interface{}{"reason": "Again"})
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	assert.Equal(suite.T(), services.CodeValidation, resp["error"].(map[string]interface{})["code"])
}

// TestRejectsUnauthenticated checks that order routes require a valid token
func (suite *OrderIntegrationTestSuite) TestRejectsUnauthenticated() {
	status, resp := suite.request("", http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, status)
	assert.Equal(suite.T(), false, resp["success"])

	expired, err := middleware.IssueToken(suite.cfg, services.Customer(suite.f.Customer.ID), -time.Hour)
	suite.Require().NoError(err)
	status, _ = suite.request(expired, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, status)
}

func TestOrderIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderIntegrationTestSuite))
}
