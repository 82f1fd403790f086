package memory_test

import (
	"testing"

	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/aussiebroadwan/geohop/internal/relay/store/drivers/memory"
	"github.com/aussiebroadwan/geohop/internal/relay/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T, clock *storetest.Clock) store.Sessions {
		s := memory.New()
		s.Now = clock.Now
		return s
	})
}
