package acceptance

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
	"github.com/washwala/laundry-api/models"
	"github.com/washwala/laundry-api/routes"
	"github.com/washwala/laundry-api/services"
	"github.com/washwala/laundry-api/tests/testutil"
)

// OrderAcceptanceTestSuite exercises customer and laundry scenarios over a
// real HTTP listener
type OrderAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	cfg    *config.Config
	f      *testutil.Fixture
}

// SetupSuite runs once before all tests
func (suite *OrderAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.cfg = &config.Config{
		GoEnv:              "test",
		JWTSecret:          "acceptance-secret-0123456789",
		JWTIssuer:          "washwala-auth",
		JWTAudience:        "washwala-api",
		CORSAllowedOrigins: []string{"*"},
	}
}

// SetupTest starts a server on a freshly seeded database for every test
func (suite *OrderAcceptanceTestSuite) SetupTest() {
	db := testutil.NewTestDB(suite.T())
	suite.f = testutil.Seed(suite.T(), db)
	suite.server = httptest.NewServer(suite.createRouter())
}

// TearDownTest runs after each test
func (suite *OrderAcceptanceTestSuite) TearDownTest() {
	suite.server.Close()
}

// createRouter creates the full application router for acceptance testing
func (suite *OrderAcceptanceTestSuite) createRouter() *gin.Engine {
	db := suite.f.DB
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

	router := gin.New()
	router.Use(gin.Recovery(), middleware.CORS(suite.cfg))
	routes.Register(router.Group("/api/v1"), routes.Controllers{
		Orders:        controllers.NewOrderController(orders),
		Reviews:       controllers.NewReviewController(reviews),
		Promos:        controllers.NewPromoController(promos),
		Laundries:     controllers.NewLaundryController(catalog, stats),
		Notifications: controllers.NewNotificationController(services.NewNotificationService(db)),
		Users:         controllers.NewUserController(services.NewUserService(db)),
	}, auth)
	return router
}

func (suite *OrderAcceptanceTestSuite) tokenFor(actor services.Actor) string {
	token, err := middleware.IssueToken(suite.cfg, actor, time.Hour)
	suite.Require().NoError(err)
	return token
}

// makeRequest is a helper to make HTTP requests
func (suite *OrderAcceptanceTestSuite) makeRequest(token, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		suite.Require().NoError(err)
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, bodyReader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var result map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func (suite *OrderAcceptanceTestSuite) placeOrder(token string) int {
	resp, result := suite.makeRequest(token, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"laundry_id":     suite.f.Laundry.ID,
		"pickup_address": "House 12, Street 4, Gulberg III, Lahore",
		"pickup_date":    testutil.PickupDate().Format(time.RFC3339),
		"payment_method": models.PaymentCOD,
		"items": []map[string]interface{}{
			{"service_id": suite.f.WashService.ID, "clothing_item_id": suite.f.Shirt.ID, "quantity": 3},
			{"service_id": suite.f.WashService.ID, "clothing_item_id": suite.f.MixedLoad.ID, "weight_kg": "1.5"},
		},
	})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode, result)
	return int(result["data"].(map[string]interface{})["id"].(float64))
}

// TestAcceptance_CustomerBrowsesAndOrders covers browsing the catalog then ordering
func (suite *OrderAcceptanceTestSuite) TestAcceptance_CustomerBrowsesAndOrders() {
	resp, result := suite.makeRequest("", http.MethodGet, fmt.Sprintf("/api/v1/laundries/%d/services", suite.f.Laundry.ID), nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Len(suite.T(), result["data"], 1)

	customer := suite.tokenFor(services.Customer(suite.f.Customer.ID))
	orderID := suite.placeOrder(customer)

	resp, result = suite.makeRequest(customer, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	order := result["data"].(map[string]interface{})
	assert.Equal(suite.T(), "210", order["subtotal"])
	assert.Equal(suite.T(), "310", order["total_amount"])
	assert.Len(suite.T(), order["items"], 2)
	assert.Regexp(suite.T(), `^ORD-\d{8}-\d{4}$`, order["order_number"])

	owner := suite.tokenFor(services.LaundryOwner(suite.f.Owner.ID, suite.f.Laundry.ID))
	resp, result = suite.makeRequest(owner, http.MethodGet, "/api/v1/notifications?unread=true", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Len(suite.T(), result["data"], 1)
}

// TestAcceptance_OtherCustomerCannotSeeOrder covers order visibility
func (suite *OrderAcceptanceTestSuite) TestAcceptance_OtherCustomerCannotSeeOrder() {
	orderID := suite.placeOrder(suite.tokenFor(services.Customer(suite.f.Customer.ID)))

	other := suite.tokenFor(services.Customer(suite.f.OtherCustomer.ID))
	resp, result := suite.makeRequest(other, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	assert.Equal(suite.T(), services.CodeOrderNotFound, result["error"].(map[string]interface{})["code"])

	rival := suite.tokenFor(services.LaundryOwner(suite.f.OtherOwner.ID, suite.f.OtherLaundry.ID))
	resp, _ = suite.makeRequest(rival, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", orderID), map[string]interface{}{"status": "ACCEPTED"})
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
}

// TestAcceptance_LaundryRejectsOrder covers a laundry turning an order down
func (suite *OrderAcceptanceTestSuite) TestAcceptance_LaundryRejectsOrder() {
	customer := suite.tokenFor(services.Customer(suite.f.Customer.ID))
	orderID := suite.placeOrder(customer)

	owner := suite.tokenFor(services.LaundryOwner(suite.f.Owner.ID, suite.f.Laundry.ID))
	resp, result := suite.makeRequest(owner, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", orderID),
		map[string]interface{}{"status": "REJECTED", "notes": "Fully booked this week"})
	suite.Require().Equal(http.StatusOK, resp.StatusCode, result)
	order := result["data"].(map[string]interface{})
	assert.Equal(suite.T(), "REJECTED", order["status"])
	assert.Equal(suite.T(), "Fully booked this week", order["rejection_reason"])

	resp, result = suite.makeRequest(customer, http.MethodGet, "/api/v1/notifications", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	inbox := result["data"].([]interface{})
	suite.Require().NotEmpty(inbox)
	assert.Equal(suite.T(), "ORDER_STATUS_CHANGED", inbox[0].(map[string]interface{})["type"])
}

func TestOrderAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderAcceptanceTestSuite))
}
