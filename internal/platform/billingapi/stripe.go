package billingapi

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"
)

type stripeCustomerClient struct {
	client *stripe.Client
}

func newStripeCustomerClient(apiKey string) *stripeCustomerClient {
	return &stripeCustomerClient{client: stripe.NewClient(apiKey)}
}

func (c *stripeCustomerClient) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	cust, err := c.client.V1Customers.Retrieve(ctx, customerID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve stripe customer %s: %w", customerID, err)
	}
	if cust.Email == "" {
		return "", fmt.Errorf("stripe customer %s has no email", customerID)
	}
	return cust.Email, nil
}
