package billingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// razorpayCustomerClient is a narrow REST client for the one endpoint this
// service needs: customer retrieval by id.
type razorpayCustomerClient struct {
	keyID      string
	keySecret  string
	httpClient *http.Client
	baseURL    string
}

func newRazorpayCustomerClient(keyID, keySecret string, httpClient *http.Client) *razorpayCustomerClient {
	return &razorpayCustomerClient{
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: httpClient,
		baseURL:    razorpayBaseURL,
	}
}

type razorpayCustomer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *razorpayCustomerClient) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/customers/%s", c.baseURL, customerID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build razorpay request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("razorpay customer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("razorpay customer %s: status %d: %s", customerID, resp.StatusCode, string(body))
	}

	var cust razorpayCustomer
	if err := json.NewDecoder(resp.Body).Decode(&cust); err != nil {
		return "", fmt.Errorf("failed to decode razorpay customer: %w", err)
	}
	if cust.Email == "" {
		return "", fmt.Errorf("razorpay customer %s has no email", customerID)
	}
	return cust.Email, nil
}
