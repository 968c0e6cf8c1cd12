package folio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/api"
	"github.com/eringen/folio/contact"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "Portfolio")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Author name for JSON-LD and the about page

	Addr      string `env:"ADDR"`       // Listen address (default ":3000")
	StaticDir string `env:"STATIC_DIR"` // Static assets, served under /public (default "public")

	APIURL     string        `env:"API_URL"`     // Required: content API root
	APITimeout time.Duration `env:"API_TIMEOUT"` // Per request timeout (default 10s)
	CacheTTL   time.Duration `env:"CACHE_TTL"`   // Optional: cache public lists this long (default off)

	SessionSecret string        `env:"SESSION_SECRET"` // Required: cookie signing secret
	CookieSecure  bool          `env:"COOKIE_SECURE"`  // Set true for HTTPS
	SessionTTL    time.Duration `env:"SESSION_TTL"`    // Token lifetime hint (default 720h)

	DatabasePath string `env:"DATABASE_PATH"` // Contact inbox SQLite path (default "data/contact.db")

	RedisAddr     string `env:"REDIS_ADDR"` // Optional: shares the login limiter across instances
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	EmailJSServiceID  string `env:"EMAILJS_SERVICE_ID"`
	EmailJSTemplateID string `env:"EMAILJS_TEMPLATE_ID"`
	EmailJSPublicKey  string `env:"EMAILJS_PUBLIC_KEY"`
	EmailJSPrivateKey string `env:"EMAILJS_PRIVATE_KEY"`
	EmailJSURL        string `env:"EMAILJS_URL"`

	LogLevel  string `env:"LOG_LEVEL"`  // debug, info, warn, error (default "info")
	LogFormat string `env:"LOG_FORMAT"` // text or json (default "text")
}

// LoadConfig reads an optional .env file and then the process environment.
// Unset values fall back to the defaults applied by New.
func LoadConfig() (SiteConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return SiteConfig{}, fmt.Errorf("folio: load .env: %w", err)
	}
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("folio: parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.APITimeout == 0 {
		c.APITimeout = 10 * time.Second
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 30 * 24 * time.Hour
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/contact.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate reports the first missing required setting.
func (c SiteConfig) Validate() error {
	if c.APIURL == "" {
		return errors.New("folio: API_URL is required")
	}
	if c.SessionSecret == "" {
		return errors.New("folio: SESSION_SECRET is required")
	}
	if c.SessionTTL < 0 {
		return errors.New("folio: SESSION_TTL must not be negative")
	}
	return nil
}

// Site returns the public subset of the configuration handed to views.
func (c SiteConfig) Site() Site {
	return Site{Name: c.Name, URL: c.URL, Description: c.Description, Author: c.Author}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides the directory for static assets and uploads.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithAPIClient replaces the content API client built from the config.
func WithAPIClient(client *api.Client) Option {
	return func(a *App) {
		a.API = client
	}
}

// WithContact enables the contact form inbox.
func WithContact(svc *contact.Service) Option {
	return func(a *App) {
		a.Contact = svc
	}
}

// WithLoginLimiter replaces the in-memory login limiter.
func WithLoginLimiter(l RateLimiter) Option {
	return func(a *App) {
		a.loginLimiter = l
	}
}

// WithLogger sets the application logger.
func WithLogger(log *logrus.Logger) Option {
	return func(a *App) {
		a.Log = log
	}
}
