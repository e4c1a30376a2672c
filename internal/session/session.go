// Package session holds the state of one baccarat table: the live shoe,
// the outcome history with its undo stack, and the forecaster.
//
// Every operation takes the session lock, so a Session may be shared between
// a connection's reader and the goroutines forwarding forecast progress.
// Forecasts run over an immutable snapshot and never block dealing.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/advisor"
	"github.com/lox/baccarat/internal/dealer"
	"github.com/lox/baccarat/internal/randutil"
	"github.com/lox/baccarat/internal/roadmap"
	"github.com/lox/baccarat/internal/shoe"
	"github.com/lox/baccarat/internal/simulator"
	"github.com/lox/baccarat/internal/statistics"
	"github.com/lox/baccarat/internal/store"
)

// ErrNothingToUndo is returned by Undo on an empty undo stack
var ErrNothingToUndo = errors.New("nothing to undo")

// Recorder persists hands as they enter the history
type Recorder interface {
	RecordHand(ctx context.Context, h store.Hand) error
	DeleteLast(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// Config holds the table settings of a session
type Config struct {
	Decks      int
	CutCard    int
	Simulation simulator.Config
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock sets the clock used for hand timestamps
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithRecorder persists every hand to r
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithSeed makes shoe shuffles reproducible. Each reset advances the seed
// stream so successive shoes differ.
func WithSeed(seed int64) Option {
	return func(s *Session) { s.seed = seed }
}

// WithID overrides the generated session ID
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Hand is one entry of the session history
type Hand struct {
	Result baccarat.GameResult `json:"result"`
	Manual bool                `json:"manual"`
	At     time.Time           `json:"at"`
}

// ShoeStatus describes the live shoe
type ShoeStatus struct {
	Decks       int     `json:"decks"`
	Size        int     `json:"size"`
	Remaining   int     `json:"remaining"`
	Burned      int     `json:"burned"`
	Dealt       int     `json:"dealt"`
	CutCard     int     `json:"cutCard"`
	Exhausted   bool    `json:"exhausted"`
	Penetration float64 `json:"penetration"`
}

// undo entries record the history length and last result before a hand
type snapshot struct {
	hands int
	last  *baccarat.GameResult
}

// Session is one table's state
type Session struct {
	id       string
	config   Config
	logger   *log.Logger
	clock    quartz.Clock
	recorder Recorder
	seed     int64
	shoes    uint64

	dealer *dealer.Dealer
	sim    *simulator.Simulator

	mu    sync.Mutex
	shoe  *shoe.Shoe
	hands []Hand
	last  *baccarat.GameResult
	undo  []snapshot
}

// New creates a session with a freshly prepared shoe
func New(config Config, opts ...Option) (*Session, error) {
	if config.Decks <= 0 {
		config.Decks = shoe.DefaultDecks
	}
	if config.CutCard <= 0 {
		config.CutCard = dealer.DefaultCutCard
	}

	s := &Session{config: config}
	for _, opt := range opts {
		opt(s)
	}

	if s.id == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate session id: %w", err)
		}
		s.id = id.String()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.logger = s.logger.With("session", s.id)
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.seed == 0 {
		s.seed = randutil.NewSeed()
	}

	simConfig := config.Simulation
	if simConfig.Logger == nil {
		simConfig.Logger = s.logger
	}
	if simConfig.Clock == nil {
		simConfig.Clock = s.clock
	}

	s.dealer = dealer.New(config.CutCard, s.logger)
	s.sim = simulator.New(simConfig)
	s.prepareShoe()
	return s, nil
}

func (s *Session) prepareShoe() {
	rng := randutil.New(randutil.Derive(s.seed, s.shoes))
	s.shoes++
	s.shoe = shoe.Prepare(s.config.Decks, rng)
	s.logger.Info("Shoe prepared", "cards", s.shoe.Remaining(), "burned", s.shoe.Burned())
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Deal plays one hand from the live shoe. At the cut card it returns
// dealer.ErrShoeExhausted and leaves the session unchanged.
func (s *Session) Deal(ctx context.Context) (baccarat.GameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.dealer.Deal(s.shoe)
	if err != nil {
		return baccarat.GameResult{}, err
	}
	s.appendLocked(ctx, result, false)
	return result, nil
}

// EnterManual records a hand read off a physical table. The cards are
// validated against the drawing rules and never touch the live shoe.
func (s *Session) EnterManual(ctx context.Context, player, banker []baccarat.Card) (baccarat.GameResult, error) {
	result, err := baccarat.ResolveManual(player, banker)
	if err != nil {
		return baccarat.GameResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(ctx, result, true)
	return result, nil
}

func (s *Session) appendLocked(ctx context.Context, result baccarat.GameResult, manual bool) {
	s.undo = append(s.undo, snapshot{hands: len(s.hands), last: s.last})

	hand := Hand{Result: result, Manual: manual, At: s.clock.Now()}
	s.hands = append(s.hands, hand)
	s.last = &hand.Result

	s.logger.Debug("Hand recorded", "seq", len(s.hands)-1, "winner", result.Winner, "manual", manual)

	if s.recorder != nil {
		err := s.recorder.RecordHand(ctx, store.Hand{
			SessionID: s.id,
			Seq:       len(s.hands) - 1,
			Result:    result,
			Manual:    manual,
			DealtAt:   hand.At,
		})
		if err != nil {
			s.logger.Warn("Failed to record hand", "error", err)
		}
	}
}

// Undo restores the history and last result from before the most recent
// hand. The shoe is not restored.
func (s *Session) Undo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.hands = s.hands[:prev.hands]
	s.last = prev.last

	s.logger.Debug("Undo", "hands", len(s.hands))

	if s.recorder != nil {
		if err := s.recorder.DeleteLast(ctx, s.id); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("Failed to delete recorded hand", "error", err)
		}
	}
	return nil
}

// Reset discards any forecast in flight, prepares a fresh shoe and clears
// the history
func (s *Session) Reset(ctx context.Context) {
	s.sim.Invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prepareShoe()
	s.hands = nil
	s.last = nil
	s.undo = nil

	if s.recorder != nil {
		if err := s.recorder.DeleteSession(ctx, s.id); err != nil {
			s.logger.Warn("Failed to clear recorded hands", "error", err)
		}
	}
}

// Forecast starts a simulation over a snapshot of the live shoe,
// superseding any forecast still running. iterations <= 0 uses the
// configured default.
func (s *Session) Forecast(ctx context.Context, iterations int) *simulator.Task {
	s.mu.Lock()
	snap := s.shoe.Snapshot()
	s.mu.Unlock()
	return s.sim.Start(ctx, snap, iterations)
}

// CancelForecast discards any forecast in flight
func (s *Session) CancelForecast() {
	s.sim.Invalidate()
}

// ForecastGeneration returns the generation of the latest forecast
func (s *Session) ForecastGeneration() uint64 {
	return s.sim.Generation()
}

// Hands returns a copy of the history with full results
func (s *Session) Hands() []Hand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Hand, len(s.hands))
	copy(out, s.hands)
	return out
}

// History returns the outcome history, oldest first
func (s *Session) History() []baccarat.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

func (s *Session) historyLocked() []baccarat.Outcome {
	out := make([]baccarat.Outcome, len(s.hands))
	for i, h := range s.hands {
		out[i] = h.Result.Winner
	}
	return out
}

// Last returns the most recent result, if any
func (s *Session) Last() (baccarat.GameResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return baccarat.GameResult{}, false
	}
	return *s.last, true
}

// CanUndo reports whether Undo would succeed
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// Roads maps the current history
func (s *Session) Roads() roadmap.Roads {
	return roadmap.Map(s.History())
}

// Statistics tallies the current history
func (s *Session) Statistics() statistics.Statistics {
	s.mu.Lock()
	results := make([]baccarat.GameResult, len(s.hands))
	for i, h := range s.hands {
		results[i] = h.Result
	}
	s.mu.Unlock()

	stats := statistics.FromResults(results)
	if err := stats.Validate(); err != nil {
		s.logger.Error("Inconsistent statistics", "error", err)
	}
	return stats
}

// Advice suggests a next bet from the current history
func (s *Session) Advice() advisor.Advice {
	return advisor.Advise(s.History())
}

// ShoeStatus describes the live shoe
func (s *Session) ShoeStatus() ShoeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.shoe.Size()
	used := size - s.shoe.Remaining()
	return ShoeStatus{
		Decks:       s.config.Decks,
		Size:        size,
		Remaining:   s.shoe.Remaining(),
		Burned:      s.shoe.Burned(),
		Dealt:       s.shoe.Dealt() - s.shoe.Burned(),
		CutCard:     s.dealer.CutCard(),
		Exhausted:   s.dealer.Exhausted(s.shoe),
		Penetration: float64(used) / float64(size),
	}
}
