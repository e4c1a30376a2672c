package server

import (
	"encoding/json"
	"time"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/advisor"
	"github.com/lox/baccarat/internal/roadmap"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
	"github.com/lox/baccarat/internal/statistics"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &Message{
		Type:      messageType,
		Data:      raw,
		Timestamp: now,
	}, nil
}

// Client → Server Messages

// ManualData carries a hand read off a physical table, e.g. "4h Ac 9d"
type ManualData struct {
	Player string `json:"player"`
	Banker string `json:"banker"`
}

type ForecastData struct {
	Iterations int `json:"iterations,omitempty"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateData is the full table view, sent in reply to every state change
type StateData struct {
	SessionID  string                `json:"sessionId"`
	History    []baccarat.Outcome    `json:"history"`
	Last       *baccarat.GameResult  `json:"last,omitempty"`
	Roads      roadmap.Roads         `json:"roads"`
	Statistics statistics.Statistics `json:"statistics"`
	Advice     advisor.Advice        `json:"advice"`
	Shoe       session.ShoeStatus    `json:"shoe"`
	CanUndo    bool                  `json:"canUndo"`
}

// HandData reports a newly recorded hand with the updated table view
type HandData struct {
	Result baccarat.GameResult `json:"result"`
	Manual bool                `json:"manual"`
	State  StateData           `json:"state"`
}

// ForecastResultData reports a completed forecast
type ForecastResultData struct {
	Generation uint64          `json:"generation"`
	Stats      simulator.Stats `json:"stats"`
}

// ShoeExhaustedData reports that the cut card has been reached
type ShoeExhaustedData struct {
	Shoe session.ShoeStatus `json:"shoe"`
}

// stateOf captures the current view of s
func stateOf(s *session.Session) StateData {
	state := StateData{
		SessionID:  s.ID(),
		History:    s.History(),
		Roads:      s.Roads(),
		Statistics: s.Statistics(),
		Advice:     s.Advice(),
		Shoe:       s.ShoeStatus(),
		CanUndo:    s.CanUndo(),
	}
	if last, ok := s.Last(); ok {
		state.Last = &last
	}
	return state
}
