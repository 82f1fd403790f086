package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/aussiebroadwan/geohop/pkg/httpx"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
)

// HealthHandler answers client probes. A session store that cannot be
// reached makes the relay unhealthy.
func HealthHandler(identity Identity, version string, st store.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := relaysdk.HealthResponse{
			Status:    "healthy",
			Region:    identity.Region,
			Version:   version,
			Timestamp: time.Now().UTC(),
		}

		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Error("session store unreachable", "error", err)
			resp.Status = "degraded"
			httpx.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		if n, err := st.Count(r.Context()); err == nil {
			resp.ActiveSessions = n
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
