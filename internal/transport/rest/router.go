package rest

import (
	"net/http"

	"github.com/mottahub/sync-backend/internal/transport/middleware"
)

// RouterConfig bundles the handlers and per-route protection settings.
type RouterConfig struct {
	Sync   *SyncHandler
	Health *HealthHandler
	// APIKey protects the sync trigger, run history, and Karbon webhook
	// routes. Empty disables the check.
	APIKey string
	// CalendlyWebhookSecret verifies Calendly delivery signatures. Empty
	// disables verification.
	CalendlyWebhookSecret string
	// WebhookRateLimit caps webhook deliveries per minute per IP. Zero
	// disables rate limiting.
	WebhookRateLimit int
	Limiter          *middleware.RateLimiter
}

// NewRouter builds the HTTP route table. Outer middleware (request ID,
// logging, recovery) is applied by the caller around the returned handler.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protected := middleware.APIKey(cfg.APIKey)
	webhookGuard := middleware.Chain()
	if cfg.Limiter != nil && cfg.WebhookRateLimit > 0 {
		webhookGuard = middleware.Chain(cfg.Limiter.Limit(cfg.WebhookRateLimit))
	}

	mux.Handle("POST /api/sync", protected(http.HandlerFunc(cfg.Sync.Trigger)))
	mux.Handle("GET /api/sync/runs", protected(http.HandlerFunc(cfg.Sync.Runs)))
	mux.Handle("POST /api/webhooks/karbon",
		webhookGuard(protected(http.HandlerFunc(cfg.Sync.KarbonWebhook))))
	mux.Handle("POST /api/webhooks/calendly",
		webhookGuard(middleware.CalendlySignature(cfg.CalendlyWebhookSecret)(http.HandlerFunc(cfg.Sync.CalendlyWebhook))))

	mux.HandleFunc("GET /healthz", cfg.Health.Live)
	mux.HandleFunc("GET /readyz", cfg.Health.Ready)
	mux.HandleFunc("GET /health", cfg.Health.Health)

	return mux
}
