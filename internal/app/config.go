package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	FrontendURL string `usage:"Storefront origin used for checkout redirects and CORS" flag:"frontend-url"`

	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`

	Session   SessionConfig
	Seller    SellerConfig
	Stripe    StripeConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// SessionConfig controls session token issuance.
type SessionConfig struct {
	Secret        string `usage:"HMAC secret for session tokens (STORE_SESSION_SECRET)" flag:"session-secret"`
	SecureCookies bool   `default:"false" usage:"Set Secure + SameSite=None on session cookies" flag:"secure-cookies"`
}

// SellerConfig is the single env-configured seller credential.
type SellerConfig struct {
	Email    string `usage:"Seller login email (STORE_SELLER_EMAIL)" flag:"seller-email"`
	Password string `usage:"Seller login password (STORE_SELLER_PASSWORD)" flag:"seller-password"`
}

// StripeConfig holds payment gateway credentials.
type StripeConfig struct {
	SecretKey     string `usage:"Stripe API secret key (STORE_STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	WebhookSecret string `usage:"Stripe webhook signing secret (STORE_STRIPE_WEBHOOK_SECRET)" flag:"stripe-webhook-secret"`
	Currency      string `default:"inr" usage:"ISO 4217 currency for checkout sessions"`
}

// GatewayConfig bounds outbound gateway calls.
type GatewayConfig struct {
	Timeout time.Duration `default:"10s" usage:"Timeout for checkout session creation" flag:"gateway-timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `usage:"Additional allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch {
	case cfg.DatabaseURL == "":
		return nil, errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	case cfg.Session.Secret == "":
		return nil, errors.New("session secret is required: set STORE_SESSION_SECRET")
	case cfg.Stripe.SecretKey == "":
		return nil, errors.New("Stripe secret key is required: set STORE_STRIPE_SECRET_KEY")
	case cfg.Stripe.WebhookSecret == "":
		return nil, errors.New("Stripe webhook secret is required: set STORE_STRIPE_WEBHOOK_SECRET")
	case cfg.Seller.Email == "" || cfg.Seller.Password == "":
		return nil, errors.New("seller credentials are required: set STORE_SELLER_EMAIL and STORE_SELLER_PASSWORD")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
