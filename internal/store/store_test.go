package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/baccarat/baccarat"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hands.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func manualHand(t *testing.T, player, banker string) baccarat.GameResult {
	t.Helper()
	r, err := baccarat.ResolveManual(baccarat.MustParseCards(player), baccarat.MustParseCards(banker))
	require.NoError(t, err)
	return r
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	assert.Error(t, err)
}

func TestRecordAndListHands(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC)

	first := manualHand(t, "9h 10c", "Ks 5s")
	second := manualHand(t, "4h Ac 9d", "Ks 5s")

	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "s1", Seq: 0, Result: first, DealtAt: at}))
	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "s1", Seq: 1, Result: second, Manual: true, DealtAt: at.Add(time.Minute)}))
	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "s2", Seq: 0, Result: first, DealtAt: at.Add(time.Hour)}))

	hands, err := s.Hands(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, hands, 2)

	assert.Equal(t, first, hands[0].Result)
	assert.False(t, hands[0].Manual)
	assert.Equal(t, at, hands[0].DealtAt)
	assert.Equal(t, second, hands[1].Result)
	assert.True(t, hands[1].Manual)
	assert.Equal(t, 1, hands[1].Seq)
}

func TestRecordHandRequiresSession(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	err := s.RecordHand(context.Background(), Hand{Result: manualHand(t, "9h 10c", "Ks 5s")})
	assert.Error(t, err)
}

func TestDeleteLast(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "s1", Seq: i, Result: manualHand(t, "9h 10c", "Ks 5s")}))
	}

	require.NoError(t, s.DeleteLast(ctx, "s1"))
	hands, err := s.Hands(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, hands, 2)
	assert.Equal(t, 1, hands[1].Seq)

	require.NoError(t, s.DeleteLast(ctx, "s1"))
	require.NoError(t, s.DeleteLast(ctx, "s1"))
	assert.ErrorIs(t, s.DeleteLast(ctx, "s1"), ErrNotFound)

	_, err = s.Hands(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordReplacesSameSeq(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	player := manualHand(t, "9h 10c", "Ks 5s")
	banker := manualHand(t, "10h 10c 2d", "Ks 7s")

	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "s1", Seq: 0, Result: player}))
	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "s1", Seq: 0, Result: banker}))

	hands, err := s.Hands(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, baccarat.Banker, hands[0].Result.Winner)
}

func TestSessions(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC)
	hand := manualHand(t, "9h 10c", "Ks 5s")

	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "old", Seq: 0, Result: hand, DealtAt: at}))
	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "old", Seq: 1, Result: hand, DealtAt: at.Add(time.Minute)}))
	require.NoError(t, s.RecordHand(ctx, Hand{SessionID: "new", Seq: 0, Result: hand, DealtAt: at.Add(time.Hour)}))

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].SessionID)
	assert.Equal(t, "old", sessions[1].SessionID)
	assert.Equal(t, 2, sessions[1].Hands)
	assert.Equal(t, at, sessions[1].FirstHand)
	assert.Equal(t, at.Add(time.Minute), sessions[1].LastHand)

	require.NoError(t, s.DeleteSession(ctx, "old"))
	sessions, err = s.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
