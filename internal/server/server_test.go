package server

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestInitialState(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	conn := dial(t, ts)

	state := expect[StateData](t, conn, MessageTypeState)
	assert.NotEmpty(t, state.SessionID)
	assert.Empty(t, state.History)
	assert.Nil(t, state.Last)
	assert.False(t, state.CanUndo)
	assert.Equal(t, 416, state.Shoe.Size)
	assert.Equal(t, 416-state.Shoe.Burned, state.Shoe.Remaining)
}

func TestEachConnectionGetsItsOwnSession(t *testing.T) {
	t.Parallel()

	srv, ts := startTestServer(t, session.Config{})
	a := dial(t, ts)
	b := dial(t, ts)

	stateA := expect[StateData](t, a, MessageTypeState)
	stateB := expect[StateData](t, b, MessageTypeState)
	assert.NotEqual(t, stateA.SessionID, stateB.SessionID)

	sendMessage(t, a, MessageTypeDeal, nil)
	expect[HandData](t, a, MessageTypeHand)

	sendMessage(t, b, MessageTypeState, nil)
	assert.Empty(t, expect[StateData](t, b, MessageTypeState).History)

	assert.Equal(t, 2, srv.ConnectionCount())
	require.NoError(t, a.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return srv.ConnectionCount() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestDealAndUndo(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	conn := dial(t, ts)
	expect[StateData](t, conn, MessageTypeState)

	sendMessage(t, conn, MessageTypeDeal, nil)
	hand := expect[HandData](t, conn, MessageTypeHand)
	assert.False(t, hand.Manual)
	require.Len(t, hand.State.History, 1)
	assert.Equal(t, hand.Result.Winner, hand.State.History[0])
	require.NotNil(t, hand.State.Last)
	assert.Equal(t, hand.Result, *hand.State.Last)
	assert.True(t, hand.State.CanUndo)

	sendMessage(t, conn, MessageTypeUndo, nil)
	state := expect[StateData](t, conn, MessageTypeState)
	assert.Empty(t, state.History)
	assert.False(t, state.CanUndo)

	sendMessage(t, conn, MessageTypeUndo, nil)
	errData := expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, "undo_failed", errData.Code)
}

func TestManualHands(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	conn := dial(t, ts)
	expect[StateData](t, conn, MessageTypeState)

	sendMessage(t, conn, MessageTypeManual, ManualData{Player: "4h Ac 9d", Banker: "Ks 5s"})
	hand := expect[HandData](t, conn, MessageTypeHand)
	assert.True(t, hand.Manual)
	assert.Equal(t, baccarat.Banker, hand.Result.Winner)
	assert.Equal(t, 4, hand.Result.PlayerScore)
	assert.Equal(t, 5, hand.Result.BankerScore)
	require.Len(t, hand.State.Roads.Cells, 1)

	// player 6 stands, so a third player card is extraneous
	sendMessage(t, conn, MessageTypeManual, ManualData{Player: "4h 2c 9d", Banker: "Ks 5s"})
	errData := expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, "invalid_hand", errData.Code)

	sendMessage(t, conn, MessageTypeManual, ManualData{Player: "4x 2c", Banker: "Ks 5s"})
	errData = expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, "invalid_cards", errData.Code)

	sendMessage(t, conn, MessageTypeState, nil)
	state := expect[StateData](t, conn, MessageTypeState)
	assert.Len(t, state.History, 1, "rejected hands never enter history")
}

func TestForecastStreamsProgress(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	conn := dial(t, ts)
	expect[StateData](t, conn, MessageTypeState)

	sendMessage(t, conn, MessageTypeForecast, ForecastData{Iterations: 30_000})

	var last float64
	for i := range 3 {
		p := expect[simulator.Progress](t, conn, MessageTypeProgress)
		assert.Equal(t, i+1, p.Batch)
		assert.Equal(t, 3, p.Batches)
		assert.Greater(t, p.Percent, last)
		last = p.Percent
	}
	assert.InDelta(t, 100.0, last, 0.001)

	result := expect[ForecastResultData](t, conn, MessageTypeForecast)
	assert.Equal(t, 30_000, result.Stats.Total)
	assert.InDelta(t, 100.0, result.Stats.PlayerProb+result.Stats.BankerProb+result.Stats.TieProb, 0.02)
	require.NotNil(t, result.Stats.ExampleHand)
	assert.Equal(t, result.Stats.Leader(), result.Stats.ExampleHand.Winner)
}

func TestResetStartsFreshShoe(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	conn := dial(t, ts)
	expect[StateData](t, conn, MessageTypeState)

	for range 3 {
		sendMessage(t, conn, MessageTypeDeal, nil)
		expect[HandData](t, conn, MessageTypeHand)
	}

	sendMessage(t, conn, MessageTypeReset, nil)
	state := expect[StateData](t, conn, MessageTypeState)
	assert.Empty(t, state.History)
	assert.Zero(t, state.Shoe.Dealt)
}

func TestShoeExhausted(t *testing.T) {
	t.Parallel()

	// one deck with the cut card at 45 leaves at most a hand or two
	_, ts := startTestServer(t, session.Config{Decks: 1, CutCard: 45})
	conn := dial(t, ts)
	expect[StateData](t, conn, MessageTypeState)

	var exhausted *ShoeExhaustedData
	for range 10 {
		sendMessage(t, conn, MessageTypeDeal, nil)
		msg := readMessage(t, conn)
		if msg.Type == MessageTypeShoeExhausted {
			var data ShoeExhaustedData
			require.NoError(t, json.Unmarshal(msg.Data, &data))
			exhausted = &data
			break
		}
		require.Equal(t, MessageTypeHand, msg.Type)
	}

	require.NotNil(t, exhausted)
	assert.True(t, exhausted.Shoe.Exhausted)
	assert.Less(t, exhausted.Shoe.Remaining, 45)
}

func TestUnknownMessageType(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t, session.Config{})
	conn := dial(t, ts)
	expect[StateData](t, conn, MessageTypeState)

	sendMessage(t, conn, MessageType("shuffle"), nil)
	errData := expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, "unknown_message_type", errData.Code)
}
