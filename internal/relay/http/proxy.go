package http

import (
	"io"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/internal/relay/service"
	"github.com/aussiebroadwan/geohop/pkg/httpx"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
)

// Headers that must not be forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

type ProxyHandler struct {
	SessionService *service.SessionService
	Client         *http.Client
}

// ServeHTTP forwards the request to ?url= on behalf of an authorized
// session and relays the target's response unchanged.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sess, err := h.SessionService.Authorize(ctx, r.Header.Get("X-Session-ID"), httpx.BearerToken(r))
	if err != nil {
		metrics.RelayProxied.WithLabelValues("unauthorized").Inc()
		log.Info("proxy request rejected", "error", err)
		reject(w, http.StatusUnauthorized, "unauthorized", "missing, expired or invalid session")
		return
	}

	raw := r.URL.Query().Get("url")
	if raw == "" {
		metrics.RelayProxied.WithLabelValues("bad_request").Inc()
		reject(w, http.StatusBadRequest, "invalid_request", "url query parameter is required")
		return
	}
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		metrics.RelayProxied.WithLabelValues("bad_request").Inc()
		reject(w, http.StatusBadRequest, "invalid_request", "url must be an absolute http(s) URL")
		return
	}

	out, err := http.NewRequestWithContext(ctx, r.Method, target.String(), r.Body)
	if err != nil {
		metrics.RelayProxied.WithLabelValues("bad_request").Inc()
		reject(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	out.ContentLength = r.ContentLength
	if r.ContentLength == 0 {
		out.Body = http.NoBody
	}
	copyHeaders(out.Header, r.Header)
	out.Header.Del("Authorization")
	out.Header.Del("X-Session-ID")

	resp, err := h.Client.Do(out)
	if err != nil {
		metrics.RelayProxied.WithLabelValues("upstream_error").Inc()
		log.Warn("upstream request failed", "session_id", sess.ID, "target", target.Host, "error", err)
		reject(w, http.StatusBadGateway, "upstream_error", "target unreachable")
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Warn("relaying response body failed", "session_id", sess.ID, "error", err)
	}

	metrics.RelayProxied.WithLabelValues("ok").Inc()
	log.Debug("proxied", "session_id", sess.ID, "target", target.Host, "status", resp.StatusCode)
}

// reject writes a relay generated error, marked so clients can tell it from
// a relayed target response.
func reject(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set(relaysdk.RelayRejectHeader, "1")
	httpx.WriteError(w, code, errCode, msg)
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		dst.Del(k)
	}
}
