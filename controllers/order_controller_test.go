package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/washwala/laundry-api/services"
)

func TestCreateOrder(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name           string
		actor          string
		mutate         func(map[string]any)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "customer places an order",
			actor:          "customer",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "laundry cannot place orders",
			actor:          "laundry",
			expectedStatus: http.StatusForbidden,
			expectedError:  services.CodeForbidden,
		},
		{
			name:           "unauthenticated",
			actor:          "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing items",
			actor:          "customer",
			mutate:         func(body map[string]any) { delete(body, "items") },
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeValidation,
		},
		{
			name:           "unknown laundry",
			actor:          "customer",
			mutate:         func(body map[string]any) { body["laundry_id"] = 9999 },
			expectedStatus: http.StatusNotFound,
			expectedError:  services.CodeLaundryNotFound,
		},
		{
			name:           "unknown promo",
			actor:          "customer",
			mutate:         func(body map[string]any) { body["promo_code"] = "NOPE" },
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.CodeInvalidOrExpiredPromo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := s.orderBody()
			if tt.mutate != nil {
				tt.mutate(body)
			}
			status, resp := s.do(t, tt.actor, http.MethodPost, "/api/v1/orders", body)

			assert.Equal(t, tt.expectedStatus, status, resp)
			assert.Equal(t, tt.expectedStatus < 300, resp["success"])
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(resp))
			}
			if status == http.StatusCreated {
				order := data(t, resp)
				assert.Equal(t, "PENDING", order["status"])
				assert.Equal(t, "200", order["subtotal"])
				assert.Equal(t, "300", order["total_amount"])
				assert.Regexp(t, `^ORD-\d{8}-0001$`, order["order_number"])
				assert.Len(t, order["items"], 2)
			}
		})
	}
}

func TestQuoteOrder(t *testing.T) {
	s := newTestServer(t)
	s.f.Welcome50(t)

	body := s.orderBody()
	body["items"] = []map[string]any{{"service_id": s.f.WashService.ID, "clothing_item_id": s.f.Shirt.ID, "quantity": 10}}
	body["promo_code"] = "welcome50"

	status, resp := s.do(t, "customer", http.MethodPost, "/api/v1/orders/quote", body)
	require.Equal(t, http.StatusOK, status, resp)
	quote := data(t, resp)
	assert.Equal(t, "500", quote["subtotal"])
	assert.Equal(t, "200", quote["discount"])
	assert.Equal(t, "400", quote["total_amount"])

	status, resp = s.do(t, "customer", http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp["data"])
}

func TestOrderStatusFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.placeOrder(t)
	path := fmt.Sprintf("/api/v1/orders/%d/status", id)

	status, resp := s.do(t, "laundry", http.MethodPatch, path, map[string]any{"status": "PROCESSING"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, services.CodeInvalidStatusTransition, errorCode(resp))

	status, resp = s.do(t, "customer", http.MethodPatch, path, map[string]any{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, services.CodeForbidden, errorCode(resp))

	status, resp = s.do(t, "rival", http.MethodPatch, path, map[string]any{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, services.CodeOrderNotFound, errorCode(resp))

	status, resp = s.do(t, "laundry", http.MethodPatch, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.CodeValidation, errorCode(resp))

	status, resp = s.do(t, "laundry", http.MethodPatch, path, map[string]any{"status": "ACCEPTED", "notes": "See you at 5"})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "ACCEPTED", data(t, resp)["status"])
	assert.NotNil(t, data(t, resp)["accepted_at"])

	status, resp = s.do(t, "customer", http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/timeline", id), nil)
	require.Equal(t, http.StatusOK, status)
	timeline := resp["data"].([]any)
	require.Len(t, timeline, 2)
	assert.Equal(t, "ORDER_ACCEPTED", timeline[1].(map[string]any)["event"])

	status, resp = s.do(t, "laundry", http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/history", id), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["data"], 2)
}

func TestCancelOrder(t *testing.T) {
	s := newTestServer(t)
	id := s.placeOrder(t)
	path := fmt.Sprintf("/api/v1/orders/%d/cancel", id)

	status, resp := s.do(t, "customer", http.MethodPost, path, map[string]any{"reason": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.CodeValidation, errorCode(resp))

	status, resp = s.do(t, "other", http.MethodPost, path, map[string]any{"reason": "not my order at all"})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = s.do(t, "customer", http.MethodPost, path, map[string]any{"reason": "found a closer laundry"})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "CANCELLED", data(t, resp)["status"])
	assert.Equal(t, "found a closer laundry", data(t, resp)["cancellation_reason"])

	status, resp = s.do(t, "customer", http.MethodPost, path, map[string]any{"reason": "found a closer laundry"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, services.CodeCancellationNotAllowed, errorCode(resp))
}

func TestGetAndListOrders(t *testing.T) {
	s := newTestServer(t)
	id := s.placeOrder(t)
	s.placeOrder(t)

	status, resp := s.do(t, "customer", http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", id), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(id), data(t, resp)["id"])

	status, resp = s.do(t, "other", http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, services.CodeOrderNotFound, errorCode(resp))

	status, resp = s.do(t, "customer", http.MethodGet, "/api/v1/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do(t, "laundry", http.MethodGet, "/api/v1/orders?page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["data"], 1)
	pagination := resp["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, float64(1), pagination["page_size"])

	status, resp = s.do(t, "laundry", http.MethodGet, "/api/v1/orders?status=BOGUS", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{services.CodeValidation, http.StatusBadRequest},
		{services.CodeUsageLimitReached, http.StatusBadRequest},
		{services.CodeForbidden, http.StatusForbidden},
		{services.CodeOrderNotFound, http.StatusNotFound},
		{services.CodeInvalidStatusTransition, http.StatusConflict},
		{services.CodeAlreadyReviewed, http.StatusConflict},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestOrderTransitions(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, "", http.MethodGet, "/api/v1/order-transitions", nil)
	require.Equal(t, http.StatusOK, status)
	transitions := resp["data"].([]any)
	require.Len(t, transitions, 13)
	assert.Equal(t, map[string]any{"from": "PENDING", "to": "ACCEPTED"}, transitions[0])
	assert.Equal(t, map[string]any{"from": "DELIVERED", "to": "COMPLETED"}, transitions[12])
}
