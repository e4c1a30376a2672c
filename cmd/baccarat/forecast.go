package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/baccarat/internal/dealer"
	"github.com/lox/baccarat/internal/fileutil"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
)

// ForecastCmd samples the remaining shoe to estimate the next hand
type ForecastCmd struct {
	Iterations int    `short:"i" help:"Sampled hands (overrides config)"`
	After      int    `short:"a" default:"0" help:"Deal this many hands before forecasting"`
	Decks      int    `help:"Decks in the shoe (overrides config)"`
	Seed       *int64 `help:"Deterministic seed for the shoe and the sampler"`
	Plain      bool   `help:"Log progress lines instead of drawing a progress bar"`
	Out        string `short:"o" help:"Also write the forecast as JSON to this file"`
}

func (c *ForecastCmd) Run(app *App) error {
	ctx, cancel := signalContext(app)
	defer cancel()

	cfg := app.sessionConfig(c.Decks, 0)
	opts := []session.Option{session.WithLogger(app.Logger)}
	if c.Seed != nil {
		opts = append(opts, session.WithSeed(*c.Seed))
		cfg.Simulation.Seed = *c.Seed
	}

	sess, err := session.New(cfg, opts...)
	if err != nil {
		return err
	}

	dealt, err := dealHands(ctx, sess, c.After, nil)
	switch {
	case errors.Is(err, dealer.ErrShoeExhausted):
		app.Logger.Warn("Cut card reached before forecasting", "dealt", dealt)
	case err != nil:
		return err
	}

	iterations := forecastIterations(c.Iterations, cfg)
	status := sess.ShoeStatus()
	app.Logger.Info("Forecasting", "cards", status.Remaining, "dealt", dealt, "iterations", iterations)

	task := sess.Forecast(ctx, iterations)

	var stats simulator.Stats
	if c.Plain {
		stats, err = waitPlain(app, task)
	} else {
		stats, err = waitWithProgressBar(task, app.Out)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(app.Out, app.Styles.renderForecast(stats))

	if c.Out != "" {
		if err := fileutil.WriteJSON(c.Out, forecastExport{
			Shoe:     status,
			Forecast: stats,
		}); err != nil {
			return err
		}
		app.Logger.Info("Wrote forecast", "path", c.Out)
	}
	return nil
}

// forecastIterations returns the flag value, or the configured count when unset
func forecastIterations(flag int, cfg session.Config) int {
	if flag > 0 {
		return flag
	}
	if cfg.Simulation.Iterations > 0 {
		return cfg.Simulation.Iterations
	}
	return simulator.DefaultIterations
}

type forecastExport struct {
	Shoe     session.ShoeStatus `json:"shoe"`
	Forecast simulator.Stats    `json:"forecast"`
}

func waitPlain(app *App, task *simulator.Task) (simulator.Stats, error) {
	for p := range task.Progress() {
		app.Logger.Info("Batch complete", "batch", p.Batch, "of", p.Batches, "percent", fmt.Sprintf("%.0f%%", p.Percent))
	}
	return task.Wait()
}

// waitWithProgressBar draws a progress bar on out until the task ends.
// Pressing q or ctrl+c cancels the run.
func waitWithProgressBar(task *simulator.Task, out io.Writer) (simulator.Stats, error) {
	final, err := tea.NewProgram(newForecastModel(task), tea.WithOutput(out)).Run()
	if err != nil {
		task.Cancel()
		return simulator.Stats{}, err
	}
	m := final.(forecastModel)
	return m.stats, m.err
}

type forecastProgressMsg simulator.Progress

type forecastDoneMsg struct {
	stats simulator.Stats
	err   error
}

type forecastModel struct {
	task    *simulator.Task
	bar     progress.Model
	latest  simulator.Progress
	stats   simulator.Stats
	err     error
	stopped bool
	done    bool
}

func newForecastModel(task *simulator.Task) forecastModel {
	return forecastModel{
		task: task,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// waitForForecast receives the next batch update, or the final result once
// the progress channel closes
func waitForForecast(task *simulator.Task) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-task.Progress()
		if !ok {
			stats, err := task.Wait()
			return forecastDoneMsg{stats: stats, err: err}
		}
		return forecastProgressMsg(p)
	}
}

func (m forecastModel) Init() tea.Cmd {
	return waitForForecast(m.task)
}

func (m forecastModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.stopped = true
			m.task.Cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(60, msg.Width-30))
		return m, nil

	case forecastProgressMsg:
		m.latest = simulator.Progress(msg)
		return m, waitForForecast(m.task)

	case forecastDoneMsg:
		m.stats, m.err = msg.stats, msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m forecastModel) View() string {
	if m.done {
		return ""
	}
	status := "starting"
	if m.latest.Batches > 0 {
		status = fmt.Sprintf("batch %d/%d  %d hands", m.latest.Batch, m.latest.Batches, m.latest.Completed)
	}
	if m.stopped {
		status = "cancelling"
	}
	return fmt.Sprintf("%s  %s\n", m.bar.ViewAs(m.latest.Percent/100), status)
}
