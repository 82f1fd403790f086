package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
)

// Validate checks the region table and the timing settings. A refresh
// buffer that is not smaller than the token duration is rejected with
// domain.ErrInvalidScheduleWindow.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Regions) == 0 {
		errs = append(errs, errors.New("at least one region must be configured"))
	}

	seen := make(map[string]struct{}, len(c.Regions))
	for i, r := range c.Regions {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			errs = append(errs, fmt.Errorf("regions[%d]: code is required", i))
			continue
		}
		if _, dup := seen[code]; dup {
			errs = append(errs, fmt.Errorf("regions[%d]: duplicate code %q", i, code))
		}
		seen[code] = struct{}{}

		if len(r.Endpoints) == 0 {
			errs = append(errs, fmt.Errorf("region %s: at least one endpoint is required", code))
		}
		for _, ep := range r.Endpoints {
			u, err := url.Parse(ep)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Errorf("region %s: endpoint %q must be an absolute http(s) URL", code, ep))
			}
		}
	}

	if c.TokenDurationSeconds <= 0 {
		errs = append(errs, errors.New("token_duration_seconds must be positive"))
	}
	if c.RefreshBufferSeconds < 0 {
		errs = append(errs, errors.New("refresh_buffer_seconds must not be negative"))
	}
	if c.TokenDurationSeconds > 0 && c.RefreshBufferSeconds >= c.TokenDurationSeconds {
		errs = append(errs, fmt.Errorf("%w: refresh_buffer_seconds (%d) must be less than token_duration_seconds (%d)",
			domain.ErrInvalidScheduleWindow, c.RefreshBufferSeconds, c.TokenDurationSeconds))
	}
	if c.ProbeTimeoutMS <= 0 {
		errs = append(errs, errors.New("probe_timeout_ms must be positive"))
	}
	if c.HandshakeTimeoutMS <= 0 {
		errs = append(errs, errors.New("handshake_timeout_ms must be positive"))
	}

	return errors.Join(errs...)
}
