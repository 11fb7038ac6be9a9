package razorpay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatePaymentLink(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotReq PaymentLinkRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/payment_links", r.URL.Path)
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(PaymentLinkEntity{
			ID:          "plink_123",
			ReferenceID: gotReq.ReferenceID,
			ShortURL:    "https://rzp.io/l/abc",
			Status:      "created",
			Amount:      gotReq.Amount,
			Notes:       gotReq.Notes,
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("key_id", "key_secret", server.URL)
	entity, err := client.CreatePaymentLink(&PaymentLinkRequest{
		Amount:      13000,
		Currency:    "INR",
		ReferenceID: "order-7",
		Notes:       map[string]string{"internal_order_id": "7"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "plink_123", entity.ID)
	assert.Equal(t, "https://rzp.io/l/abc", entity.ShortURL)
	assert.Equal(t, "key_id", gotAuthUser)
	assert.Equal(t, "key_secret", gotAuthPass)
	assert.Equal(t, int64(13000), gotReq.Amount)
}

func TestCreatePaymentLinkAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("key_id", "key_secret", server.URL)
	_, err := client.CreatePaymentLink(&PaymentLinkRequest{Amount: 1, Currency: "INR"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}
