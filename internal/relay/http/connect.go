package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/internal/relay/service"
	"github.com/aussiebroadwan/geohop/pkg/httpx"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
)

const maxConnectBody = 64 << 10

type ConnectHandler struct {
	SessionService *service.SessionService
	Identity       Identity
}

// ServeHTTP handles the session handshake: the bearer token must match the
// body token and validate for the body session id.
func (h *ConnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req relaysdk.ConnectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConnectBody)).Decode(&req); err != nil {
		metrics.RelayHandshakes.WithLabelValues("bad_request").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "body must be a JSON connect request")
		return
	}
	if req.Action != "connect" {
		metrics.RelayHandshakes.WithLabelValues("bad_request").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", `action must be "connect"`)
		return
	}
	if req.Token == "" || req.SessionID == "" {
		metrics.RelayHandshakes.WithLabelValues("bad_request").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token and sessionId are required")
		return
	}

	if httpx.BearerToken(r) != req.Token {
		metrics.RelayHandshakes.WithLabelValues("unauthorized").Inc()
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "bearer token does not match body token")
		return
	}

	clientIP := httpx.IPKeyExtractor(r)
	sess, err := h.SessionService.Register(ctx, req.Token, req.SessionID, clientIP)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			metrics.RelayHandshakes.WithLabelValues("unauthorized").Inc()
			log.Warn("handshake rejected", "session_id", req.SessionID, "error", err)
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}
		metrics.RelayHandshakes.WithLabelValues("error").Inc()
		log.Error("failed to register session", "session_id", req.SessionID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not register session")
		return
	}

	metrics.RelayHandshakes.WithLabelValues("ok").Inc()
	log.Info("session registered", "session_id", sess.ID, "expires_at", sess.ExpiresAt, "client_ip", clientIP)

	httpx.WriteJSON(w, http.StatusOK, relaysdk.ConnectResponse{
		Success:   true,
		SessionID: sess.ID,
		IP:        apparentIP(h.Identity, r),
		Country:   h.Identity.Country,
		Region:    h.Identity.Region,
		ExpiresAt: sess.ExpiresAt,
	})
}
