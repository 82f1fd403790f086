package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/internal/relay/service"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/aussiebroadwan/geohop/pkg/httpx"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
)

// Identity is how the relay presents itself to clients.
type Identity struct {
	Region  string
	Country string

	// PublicIP is the egress address tunnelled traffic appears from. When
	// empty the client's own address is reported.
	PublicIP string
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	identity     Identity
	buildVersion string
	logger       *slog.Logger
	store        store.Sessions

	SessionService *service.SessionService

	// Upstream performs proxied requests.
	Upstream *http.Client
}

func NewRouter(identity Identity, buildVersion string, st store.Sessions, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		identity:     identity,
		buildVersion: buildVersion,
		store:        st,
		logger:       logger,
		Upstream:     &http.Client{Timeout: 30 * time.Second},
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	// POST /connect - strict limit, handshakes are rare
	connectHandler := &ConnectHandler{
		SessionService: r.SessionService,
		Identity:       r.identity,
	}
	r.Mux.Handle("POST /connect",
		httpx.Chain(connectHandler,
			httpx.RateLimitByIP(httpx.HandshakeLimit),
		),
	)

	// /proxy - any method, limited per session
	proxyHandler := &ProxyHandler{
		SessionService: r.SessionService,
		Client:         r.Upstream,
	}
	r.Mux.Handle("/proxy",
		httpx.Chain(proxyHandler,
			httpx.RateLimitBySession(httpx.ProxyLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /health",
		httpx.Chain(HealthHandler(r.identity, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.ProxyLimit),
		),
	)
	r.Mux.Handle("GET /ip", InfoHandler(r.identity, false))
	r.Mux.Handle("GET /info", InfoHandler(r.identity, true))
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
