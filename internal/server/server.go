package server

import (
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/swift-payments-portal/api"
	"github.com/josh-kwaku/swift-payments-portal/internal/handler"
	"github.com/josh-kwaku/swift-payments-portal/internal/middleware"
	"github.com/josh-kwaku/swift-payments-portal/internal/ratelimit"
	"github.com/josh-kwaku/swift-payments-portal/internal/repository"
)

type Handlers struct {
	Payments *handler.PaymentHandler
	Auth     *handler.AuthHandler
	Health   *handler.HealthHandler
}

type Options struct {
	JWTSecret     string
	ClientOrigin  string
	IsDevelopment bool
	Logger        *slog.Logger

	// GlobalLimiter applies to every request; AuthLimiter additionally
	// guards the credential endpoints.
	GlobalLimiter ratelimit.Limiter
	AuthLimiter   ratelimit.Limiter

	Idempotency *repository.IdempotencyRepository
}

type route struct {
	method  string
	path    string
	handler http.Handler
	// documented routes must appear in the OpenAPI document.
	documented bool
}

func routes(h Handlers, opts Options) []route {
	authed := middleware.Auth(opts.JWTSecret)
	authLimit := middleware.RateLimit(opts.AuthLimiter)
	idempotent := middleware.Idempotency(opts.Idempotency)

	return []route{
		{http.MethodGet, "/health", http.HandlerFunc(h.Health.Liveness), true},
		{http.MethodGet, "/health/ready", http.HandlerFunc(h.Health.Readiness), true},
		{http.MethodGet, "/docs", handler.ServeDocs(), false},
		{http.MethodGet, "/docs/openapi.yaml", handler.ServeOpenAPI(api.OpenAPI), false},

		{http.MethodPost, "/api/auth/register", authLimit(http.HandlerFunc(h.Auth.Register)), true},
		{http.MethodPost, "/api/auth/login", authLimit(http.HandlerFunc(h.Auth.Login)), true},
		{http.MethodPost, "/api/auth/logout", http.HandlerFunc(h.Auth.Logout), true},
		{http.MethodGet, "/api/auth/me", middleware.OptionalAuth(opts.JWTSecret)(http.HandlerFunc(h.Auth.Me)), true},

		{http.MethodPost, "/api/payments", authed(idempotent(http.HandlerFunc(h.Payments.Create))), true},
		{http.MethodGet, "/api/staff/payments", authed(http.HandlerFunc(h.Payments.List)), true},
		{http.MethodGet, "/api/staff/payments/{id}", authed(http.HandlerFunc(h.Payments.Get)), true},
		{http.MethodDelete, "/api/staff/payments/{id}", authed(http.HandlerFunc(h.Payments.Delete)), true},
		{http.MethodPost, "/api/staff/payments/{id}/verify", authed(http.HandlerFunc(h.Payments.Verify)), true},
		{http.MethodPost, "/api/staff/payments/{id}/submit", authed(http.HandlerFunc(h.Payments.Submit)), true},
	}
}

// New assembles the gateway. Request ids and the request logger are set up
// before panic recovery so a recovered panic is still attributable.
func New(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()
	for _, rt := range routes(h, opts) {
		mux.Handle(rt.method+" "+rt.path, rt.handler)
	}
	mux.HandleFunc("/", handler.NotFound)

	var next http.Handler = mux
	next = middleware.RateLimit(opts.GlobalLimiter)(next)
	next = middleware.CORS(opts.ClientOrigin)(next)
	next = middleware.SecureHeaders(opts.IsDevelopment)(next)
	next = middleware.Recovery(next)
	next = middleware.Logging(opts.Logger)(next)
	next = middleware.Tracing(next)
	return next
}
