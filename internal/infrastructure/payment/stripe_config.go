package payment

import (
	"fmt"
	"strings"
)

// StripeConfig holds configuration for the Stripe refund gateway
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// IsTestMode indicates if using Stripe test mode
	IsTestMode bool `json:"is_test_mode" mapstructure:"is_test_mode"`

	// MaxNetworkRetries is how often the client retries a request that failed
	// on the network. Retries reuse the idempotency key.
	MaxNetworkRetries int64 `json:"max_network_retries" mapstructure:"max_network_retries"`

	// BackendURL overrides the API base URL, e.g. to point at stripe-mock
	BackendURL string `json:"backend_url" mapstructure:"backend_url"`

	// StoreName is attached to refund metadata so support can match refunds
	// to the storefront in the Stripe dashboard
	StoreName string `json:"store_name" mapstructure:"store_name"`
}

// DefaultStripeConfig returns a default configuration for development/testing
func DefaultStripeConfig() *StripeConfig {
	return &StripeConfig{
		IsTestMode:        true,
		MaxNetworkRetries: 2,
	}
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}

	if c.IsTestMode {
		if len(c.SecretKey) > 7 && !strings.HasPrefix(c.SecretKey, "sk_test") && !strings.HasPrefix(c.SecretKey, "rk_test") {
			return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
		}
	} else {
		if len(c.SecretKey) > 7 && !strings.HasPrefix(c.SecretKey, "sk_live") && !strings.HasPrefix(c.SecretKey, "rk_live") {
			return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
		}
	}

	if c.MaxNetworkRetries < 0 {
		return fmt.Errorf("stripe: max network retries cannot be negative")
	}

	return nil
}
