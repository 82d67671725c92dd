package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadassist/roadassist-backend/internal/pkg/apperror"
)

func TestClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// 500.00 в минорных единицах
		assert.Equal(t, int64(50000), req.Amount)
		assert.Equal(t, "receipt_r1", req.Receipt)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key_test")
	order, err := client.CreateOrder(context.Background(), "receipt_r1", 500)
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
}

func TestClient_CreateOrder_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.CreateOrder(context.Background(), "receipt_r1", 100)
	require.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}

func TestClient_CreateOrder_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "")
	_, err := client.CreateOrder(context.Background(), "receipt_r1", 100)
	require.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}

func TestClient_CreateOrder_EmptyOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Order{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.CreateOrder(context.Background(), "receipt_r1", 100)
	require.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}
