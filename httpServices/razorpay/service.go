package razorpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com"

// Client talks to the Razorpay REST API with key-id/key-secret basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
}

func NewClient(keyID, keySecret string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   defaultBaseURL,
		keyID:     keyID,
		keySecret: keySecret,
	}
}

// NewClientWithBaseURL points the client at a non-default endpoint, used by
// tests against a local stub server.
func NewClientWithBaseURL(keyID, keySecret, baseURL string) *Client {
	c := NewClient(keyID, keySecret)
	c.baseURL = baseURL
	return c
}

// CreatePaymentLink creates a hosted payment link for the given amount.
func (c *Client) CreatePaymentLink(req *PaymentLinkRequest) (*PaymentLinkEntity, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+"/v1/payment_links", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay payment link API returned %s: %s", resp.Status, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay payment link API returned non-OK status: %s", resp.Status)
	}

	var entity PaymentLinkEntity
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return nil, err
	}

	return &entity, nil
}
