// Package simulator forecasts the next hand from the exact remaining shoe by
// Monte Carlo sampling.
//
// A run is split into fixed-size batches. Cancellation and supersession are
// checked between batches only, progress is published after every batch, and
// a run that does not finish cleanly never publishes final stats.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/randutil"
	"github.com/lox/baccarat/internal/shoe"
)

const (
	DefaultIterations = 1_000_000
	DefaultBatchSize  = 50_000

	// below this many hands a batch runs on a single worker
	parallelThreshold = 500
	maxWorkers        = 8
)

var (
	// ErrCancelled is returned when the run's context ends before it finishes
	ErrCancelled = errors.New("simulation cancelled")

	// ErrSuperseded is returned when a newer run started on the same simulator
	ErrSuperseded = errors.New("simulation superseded")
)

// Config holds configuration for forecasting runs
type Config struct {
	Iterations int
	BatchSize  int
	Workers    int
	Seed       int64 // 0 draws a fresh seed per run
	Logger     *log.Logger
	Clock      quartz.Clock
}

func (c Config) withDefaults() Config {
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = min(runtime.NumCPU(), maxWorkers)
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
	return c
}

// Stats is the final forecast of one run. Probabilities are percentages
// rounded to two decimals, computed once from the final counts.
type Stats struct {
	PlayerWins  int                  `json:"pWins"`
	BankerWins  int                  `json:"bWins"`
	Ties        int                  `json:"tWins"`
	Total       int                  `json:"total"`
	PlayerProb  float64              `json:"pProb"`
	BankerProb  float64              `json:"bProb"`
	TieProb     float64              `json:"tProb"`
	ExampleHand *baccarat.GameResult `json:"exampleHand"`
	Elapsed     time.Duration        `json:"elapsed"`
}

// Leader returns the side with more sampled wins; banker on a dead heat
func (s Stats) Leader() baccarat.Outcome {
	if s.PlayerWins > s.BankerWins {
		return baccarat.Player
	}
	return baccarat.Banker
}

// Progress is published after every completed batch
type Progress struct {
	Generation uint64  `json:"generation"`
	Batch      int     `json:"batch"`
	Batches    int     `json:"batches"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
}

// Simulator runs forecasts for one session. Starting a run invalidates any
// run still in flight, so at most one result stream is live at a time.
type Simulator struct {
	config     Config
	logger     *log.Logger
	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a simulator with the given configuration
func New(config Config) *Simulator {
	config = config.withDefaults()
	return &Simulator{
		config: config,
		logger: config.Logger.WithPrefix("simulator"),
	}
}

// Config returns the effective configuration
func (s *Simulator) Config() Config {
	return s.config
}

// Generation returns the generation of the most recent run
func (s *Simulator) Generation() uint64 {
	return s.generation.Load()
}

func (s *Simulator) current(gen uint64) bool {
	return s.generation.Load() == gen
}

// Invalidate bumps the generation and cancels the run in flight, if any
func (s *Simulator) Invalidate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidateLocked()
}

func (s *Simulator) invalidateLocked() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.generation.Add(1)
}

// Start launches a run over snap in the background. iterations <= 0 uses
// the configured default. Any earlier run is superseded first.
func (s *Simulator) Start(ctx context.Context, snap shoe.Snapshot, iterations int) *Task {
	if iterations <= 0 {
		iterations = s.config.Iterations
	}

	s.mu.Lock()
	gen := s.invalidateLocked()
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	task := &Task{
		Generation: gen,
		progress:   make(chan Progress),
		done:       make(chan struct{}),
		cancel:     cancel,
	}

	seed := s.config.Seed
	if seed == 0 {
		seed = randutil.NewSeed()
	}

	go s.run(runCtx, task, snap, iterations, seed)
	return task
}

// Run starts a run and blocks until it ends, calling onProgress after each
// batch. onProgress may be nil.
func (s *Simulator) Run(ctx context.Context, snap shoe.Snapshot, iterations int, onProgress func(Progress)) (Stats, error) {
	task := s.Start(ctx, snap, iterations)
	for p := range task.Progress() {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return task.Wait()
}

func (s *Simulator) run(ctx context.Context, task *Task, snap shoe.Snapshot, iterations int, seed int64) {
	defer close(task.done)
	defer close(task.progress)
	defer task.cancel()

	logger := s.logger.With("generation", task.Generation)

	if snap.Len() < shoe.MaxHandCards {
		task.err = fmt.Errorf("%w: %d cards left", shoe.ErrInsufficientShoe, snap.Len())
		return
	}

	start := s.config.Clock.Now()
	values := snap.Values()
	batchSize := s.config.BatchSize
	batches := (iterations + batchSize - 1) / batchSize

	logger.Debug("Starting simulation", "iterations", iterations, "batches", batches,
		"cards", snap.Len(), "workers", s.config.Workers)

	var acc tally
	for b := range batches {
		if !s.current(task.Generation) {
			task.err = ErrSuperseded
			return
		}
		if ctx.Err() != nil {
			logger.Debug("Simulation cancelled", "batch", b, "completed", acc.total())
			task.err = ErrCancelled
			return
		}

		n := min(batchSize, iterations-b*batchSize)
		result := s.runBatch(values, n, seed, b)

		// a batch finishing after a newer run started is dropped
		if !s.current(task.Generation) {
			logger.Debug("Discarding stale batch", "batch", b)
			task.err = ErrSuperseded
			return
		}
		acc.merge(result)

		p := Progress{
			Generation: task.Generation,
			Batch:      b + 1,
			Batches:    batches,
			Completed:  acc.total(),
			Total:      iterations,
			Percent:    100 * float64(acc.total()) / float64(iterations),
		}
		if ctx.Err() == nil {
			select {
			case task.progress <- p:
			case <-ctx.Done():
			}
		}

		runtime.Gosched()
	}

	if !s.current(task.Generation) {
		task.err = ErrSuperseded
		return
	}
	if ctx.Err() != nil {
		task.err = ErrCancelled
		return
	}

	stats, err := finalize(acc, snap)
	if err != nil {
		task.err = err
		return
	}
	stats.Elapsed = s.config.Clock.Since(start)
	task.stats = stats

	logger.Info("Simulation complete",
		"hands", stats.Total,
		"player", stats.PlayerProb,
		"banker", stats.BankerProb,
		"tie", stats.TieProb,
		"elapsed", stats.Elapsed)
}

// runBatch plays n hands, fanning out to workers for larger batches.
// Every worker gets its own RNG derived from (seed, batch, worker).
func (s *Simulator) runBatch(values []uint8, n int, seed int64, batch int) tally {
	workers := s.config.Workers
	if n < parallelThreshold {
		workers = 1
	}

	perWorker := n / workers
	remainder := n % workers
	results := make([]tally, workers)

	var g errgroup.Group
	for w := range workers {
		samples := perWorker
		if w < remainder {
			samples++
		}
		workerSeed := randutil.Derive(seed, uint64(batch*workers+w))

		g.Go(func() error {
			results[w] = sampleHands(values, samples, randutil.New(workerSeed))
			return nil
		})
	}
	_ = g.Wait()

	var out tally
	for _, r := range results {
		out.merge(r)
	}
	return out
}

func finalize(acc tally, snap shoe.Snapshot) (Stats, error) {
	total := acc.total()
	stats := Stats{
		PlayerWins: acc.playerWins,
		BankerWins: acc.bankerWins,
		Ties:       acc.ties,
		Total:      total,
	}
	if total == 0 {
		return stats, nil
	}

	stats.PlayerProb = percent(acc.playerWins, total)
	stats.BankerProb = percent(acc.bankerWins, total)
	stats.TieProb = percent(acc.ties, total)

	example := acc.bankerExample
	if stats.Leader() == baccarat.Player {
		example = acc.playerExample
	}
	if example != nil {
		result, err := rebuild(snap, example)
		if err != nil {
			return Stats{}, fmt.Errorf("rebuild example hand: %w", err)
		}
		stats.ExampleHand = &result
	}
	return stats, nil
}

func percent(n, total int) float64 {
	return math.Round(float64(n)*10000/float64(total)) / 100
}

// Task is one background run. Drain Progress, then call Wait.
type Task struct {
	Generation uint64

	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	stats Stats
	err   error
}

// Progress delivers one update per finished batch and is closed when the
// run ends for any reason. The run waits for each update to be received,
// so callers must drain it.
func (t *Task) Progress() <-chan Progress {
	return t.progress
}

// Done is closed once the run has ended
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the run before its next batch
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the run ends. Stats are only returned for a run that
// completed every batch while still current.
func (t *Task) Wait() (Stats, error) {
	<-t.done
	if t.err != nil {
		return Stats{}, t.err
	}
	return t.stats, nil
}

// IsDiscarded reports whether err marks a run that was cancelled or
// superseded rather than one that failed
func IsDiscarded(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, ErrSuperseded)
}
