package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/baccarat/internal/randutil"
	"github.com/lox/baccarat/internal/shoe"
)

func TestPlayOneMatchesHandRules(t *testing.T) {
	t.Parallel()

	snap := shoe.New(1, randutil.New(21)).Snapshot()
	values := snap.Values()
	rng := randutil.New(22)

	var h hand
	for range 5000 {
		winner := playOne(values, rng, &h)
		require.GreaterOrEqual(t, h.used, 4)
		require.LessOrEqual(t, h.used, shoe.MaxHandCards)

		seen := make(map[int]bool)
		for _, p := range h.pos[:h.used] {
			require.False(t, seen[p], "position %d sampled twice", p)
			seen[p] = true
		}

		result, err := rebuild(snap, &h)
		require.NoError(t, err)
		require.Equal(t, winner, result.Winner)
		require.Equal(t, h.used, len(result.PlayerCards)+len(result.BankerCards))
	}
}

func TestTallyMergeKeepsFirstExample(t *testing.T) {
	t.Parallel()

	first := &hand{used: 4}
	second := &hand{used: 5}

	a := tally{playerWins: 2, playerExample: first}
	a.merge(tally{playerWins: 1, bankerWins: 3, ties: 1, playerExample: second, bankerExample: second})

	assert.Equal(t, 3, a.playerWins)
	assert.Equal(t, 3, a.bankerWins)
	assert.Equal(t, 1, a.ties)
	assert.Equal(t, 7, a.total())
	assert.Same(t, first, a.playerExample)
	assert.Same(t, second, a.bankerExample)
}

func TestPercentRounding(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 33.33, percent(1, 3))
	assert.Equal(t, 66.67, percent(2, 3))
	assert.Equal(t, 100.0, percent(5, 5))
}
