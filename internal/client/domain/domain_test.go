package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/stretchr/testify/require"
)

func TestRegionsLookup(t *testing.T) {
	t.Parallel()

	rs := domain.Regions{
		{Code: "US", Name: "United States", Endpoints: []string{"http://w1"}},
		{Code: "DE", Name: "Germany", Endpoints: []string{"http://w2"}},
	}

	r, ok := rs.Lookup("DE")
	require.True(t, ok)
	require.Equal(t, "Germany", r.Name)

	_, ok = rs.Lookup("JP")
	require.False(t, ok)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "connected", domain.StateConnected.String())
	require.Equal(t, "switching", domain.StateSwitching.String())
	require.Equal(t, "unknown", domain.State(42).String())
}
