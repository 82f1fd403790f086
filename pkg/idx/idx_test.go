package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/geohop/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id, err := idx.New()
	require.NoError(t, err)
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(in)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", in)
	}
}

func TestUniqueWithinSameMillisecond(t *testing.T) {
	at := time.Unix(1700000000, 0)
	seen := make(map[idx.ID]struct{}, 1000)

	// Same timestamp for every ID, uniqueness comes from the monotonic entropy
	for range 1000 {
		id, err := idx.NewAt(at)
		require.NoError(t, err)
		require.NotContains(t, seen, id)
		seen[id] = struct{}{}
	}
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id, err := idx.NewAt(tm)
	require.NoError(t, err)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
	require.True(t, idx.Zero.Time().IsZero())
}
