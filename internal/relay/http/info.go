package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/geohop/pkg/httpx"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
)

// InfoHandler reports the address and location a client appears from. /ip
// gets the short form, /info adds region and user agent.
func InfoHandler(identity Identity, detailed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := relaysdk.InfoResponse{
			IP:        apparentIP(identity, r),
			Country:   identity.Country,
			Timestamp: time.Now().UTC(),
		}
		if detailed {
			resp.Region = identity.Region
			resp.UserAgent = r.UserAgent()
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func apparentIP(identity Identity, r *http.Request) string {
	if identity.PublicIP != "" {
		return identity.PublicIP
	}
	return httpx.IPKeyExtractor(r)
}
