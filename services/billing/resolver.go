package billing

import (
	"context"
	"fmt"
	"time"

	"license-sync/pkg/config"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// CustomerResolver maps a provider customer reference to the identity email
// that keys the license row.
type CustomerResolver interface {
	Email(ctx context.Context, customerID string) (string, error)
}

type stripeResolver struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeResolver builds the production resolver against the Stripe API.
// The lookup is a network call; it carries its own timeout so a slow
// provider fails one event instead of stalling the handler pool.
func NewStripeResolver(cfg *config.Config) CustomerResolver {
	api := &client.API{}
	api.Init(cfg.Stripe.APIKey, nil)

	timeout := cfg.Stripe.ResolveTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &stripeResolver{api: api, timeout: timeout}
}

func (r *stripeResolver) Email(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", fmt.Errorf("empty customer reference")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cust, err := r.api.Customers.Get(customerID, &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", fmt.Errorf("fetch customer %s: %w", customerID, err)
	}

	if cust.Email == "" {
		return "", fmt.Errorf("customer %s has no email", customerID)
	}

	return cust.Email, nil
}
