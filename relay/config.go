package relay

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rafinno25/applepay-poc/relay/authorizenet"
)

// Config is the process-wide configuration. It is loaded once at startup
// and passed by reference into each component; nothing mutates it after
// Validate.
type Config struct {
	HTTPAddr    string
	Environment string // development|production

	// Apple Pay merchant identity
	MerchantID       string
	DisplayName      string
	MerchantCertPath string
	MerchantKeyPath  string

	// Authorize.Net credentials
	APILoginID     string
	TransactionKey string
	GatewayMode    string // sandbox|production

	// Optional webhook signature key. Inbound signatures are not verified
	// yet; the key only drives logging of signature presence.
	WebhookSignatureKey string

	DefaultPaymentAmount float64
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:             "localhost:3000",
		Environment:          "development",
		GatewayMode:          "sandbox",
		DisplayName:          "Apple Pay Demo Store",
		DefaultPaymentAmount: 1.00,
	}
}

// ConfigFromEnv builds a Config from the environment, falling back to
// defaults for everything optional.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if port := getenv("PORT", ""); port != "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.Environment = getenv("APP_ENV", cfg.Environment)
	cfg.MerchantID = getenv("APPLE_MERCHANT_ID", "")
	cfg.DisplayName = getenv("APPLE_MERCHANT_DISPLAY_NAME", cfg.DisplayName)
	cfg.MerchantCertPath = getenv("APPLE_PAY_CERT_PATH", "certs/merchant_id.pem")
	cfg.MerchantKeyPath = getenv("APPLE_PAY_KEY_PATH", "certs/merchant_id.key")
	cfg.APILoginID = getenv("AUTHNET_API_LOGIN_ID", "")
	cfg.TransactionKey = getenv("AUTHNET_TRANSACTION_KEY", "")
	cfg.GatewayMode = getenv("AUTHNET_ENVIRONMENT", cfg.GatewayMode)
	cfg.WebhookSignatureKey = getenv("AUTHNET_SIGNATURE_KEY", "")
	if amount := getenv("PAYMENT_AMOUNT", ""); amount != "" {
		if v, err := strconv.ParseFloat(amount, 64); err == nil && v > 0 {
			cfg.DefaultPaymentAmount = v
		}
	}
	return cfg
}

// Validate rejects configurations that are missing required credentials.
// This runs at process startup so misconfiguration fails the deploy, not a
// customer's payment attempt.
func (c *Config) Validate() error {
	if c.MerchantID == "" {
		return fmt.Errorf("APPLE_MERCHANT_ID is required")
	}
	if c.APILoginID == "" {
		return fmt.Errorf("AUTHNET_API_LOGIN_ID is required")
	}
	if c.TransactionKey == "" {
		return fmt.Errorf("AUTHNET_TRANSACTION_KEY is required")
	}
	switch c.GatewayMode {
	case "sandbox", "production":
	default:
		return fmt.Errorf("unsupported AUTHNET_ENVIRONMENT=%s", c.GatewayMode)
	}
	return nil
}

// GatewayURL selects the gateway endpoint for the configured mode.
func (c *Config) GatewayURL() string {
	if c.GatewayMode == "production" {
		return authorizenet.ProductionURL
	}
	return authorizenet.SandboxURL
}

// Development reports whether error responses may carry internal detail.
func (c *Config) Development() bool {
	return c.Environment != "production"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
