package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/config"
	"github.com/lox/baccarat/internal/randutil"
	"github.com/lox/baccarat/internal/roadmap"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/shoe"
	"github.com/lox/baccarat/internal/simulator"
	"github.com/lox/baccarat/internal/store"
)

func testApp(t *testing.T, cfg *config.Config) (*App, *bytes.Buffer) {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Simulation.BatchSize = 10_000
	cfg.Simulation.Workers = 2

	var out bytes.Buffer
	r := lipgloss.NewRenderer(&out)
	r.SetColorProfile(termenv.Ascii)
	return &App{
		Config: cfg,
		Logger: log.New(io.Discard),
		Out:    &out,
		Styles: NewStyles(r),
	}, &out
}

func TestSetupLoadsEnvFileAndConfig(t *testing.T) {
	_, set := os.LookupEnv("BACCARAT_CUT_CARD")
	require.False(t, set, "BACCARAT_CUT_CARD must not be set for this test")
	t.Cleanup(func() { _ = os.Unsetenv("BACCARAT_CUT_CARD") })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "baccarat.hcl")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(cfgPath, []byte("shoe {\n  decks = 6\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("BACCARAT_CUT_CARD=20\n"), 0o644))

	cli := CLI{Config: cfgPath, EnvFile: envPath, LogLevel: "warn", NoColor: true}
	app, err := cli.setup(io.Discard, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 6, app.Config.Shoe.Decks)
	assert.Equal(t, 20, app.Config.Shoe.CutCard)
	assert.Equal(t, log.WarnLevel, app.Logger.GetLevel())
}

func TestSetupFlags(t *testing.T) {
	dir := t.TempDir()

	cli := CLI{
		Config:   filepath.Join(dir, "missing.hcl"),
		EnvFile:  filepath.Join(dir, "missing.env"),
		Verbose:  true,
		Database: filepath.Join(dir, "hands.db"),
	}
	app, err := cli.setup(io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, app.Logger.GetLevel())
	assert.Equal(t, filepath.Join(dir, "hands.db"), app.Config.Database)

	cli = CLI{Config: filepath.Join(dir, "missing.hcl"), LogLevel: "loud"}
	_, err = cli.setup(io.Discard, io.Discard)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestResolveManual(t *testing.T) {
	t.Parallel()

	r, err := resolveManual("4h Ac 9d", "Ks 5s")
	require.NoError(t, err)
	assert.Equal(t, baccarat.Banker, r.Winner)
	assert.Equal(t, 4, r.PlayerScore)
	assert.Equal(t, 5, r.BankerScore)

	_, err = resolveManual("4x Ac", "Ks 5s")
	assert.ErrorContains(t, err, "player cards")

	_, err = resolveManual("4h Ac", "Ks")
	assert.Error(t, err)
}

func TestManualCmdJSON(t *testing.T) {
	t.Parallel()

	app, out := testApp(t, nil)
	require.NoError(t, (&ManualCmd{Player: "9h 10c", Banker: "Ks 5s", JSON: true}).Run(app))

	var r baccarat.GameResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, baccarat.Player, r.Winner)
	assert.True(t, r.IsNatural)
}

func TestRoadsCmd(t *testing.T) {
	t.Parallel()

	app, out := testApp(t, nil)
	require.NoError(t, (&RoadsCmd{History: "PBPBP", JSON: true}).Run(app))

	var report roadsReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Len(t, report.History, 5)
	assert.Len(t, report.Roads.Cells, 5)
	assert.Equal(t, []roadmap.Color{roadmap.Red, roadmap.Red, roadmap.Red}, report.Roads.BigEyeBoy)
	assert.Equal(t, 3, report.Statistics.PlayerWins)

	out.Reset()
	require.NoError(t, (&RoadsCmd{History: "PPBT"}).Run(app))
	assert.Contains(t, out.String(), "Big Road")
	assert.Contains(t, out.String(), "Cockroach")
	assert.Contains(t, out.String(), "Statistics (4 hands)")

	assert.Error(t, (&RoadsCmd{History: "PX"}).Run(app))
	assert.ErrorContains(t, (&RoadsCmd{History: "PB", Session: "abc"}).Run(app), "not both")
	assert.ErrorContains(t, (&RoadsCmd{Session: "abc"}).Run(app), "no database configured")
}

func TestRenderBigRoad(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t, nil)
	history, err := baccarat.ParseHistory("PPBT")
	require.NoError(t, err)

	lines := strings.Split(app.Styles.renderBigRoad(roadmap.NewBigRoad(history)), "\n")
	require.Len(t, lines, roadmap.Rows)
	assert.Equal(t, []string{"P", "B1"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"P", "."}, strings.Fields(lines[1]))
	assert.Equal(t, []string{".", "."}, strings.Fields(lines[5]))

	assert.Equal(t, "(empty)", app.Styles.renderBigRoad(roadmap.NewBigRoad(nil)))
}

func TestCardsColourRedSuits(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := lipgloss.NewRenderer(&buf)
	r.SetColorProfile(termenv.ANSI)
	styles := NewStyles(r)

	red, err := baccarat.ParseCard("9h")
	require.NoError(t, err)
	black, err := baccarat.ParseCard("Ks")
	require.NoError(t, err)

	assert.Contains(t, styles.cards([]baccarat.Card{red}), "\x1b[")
	assert.Equal(t, "K♠", styles.cards([]baccarat.Card{black}))

	mixed := styles.cards([]baccarat.Card{black, red})
	assert.Equal(t, lipgloss.Width("K♠ 9♥"), lipgloss.Width(mixed))
}

func TestRenderHandAlignsStyledCards(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := lipgloss.NewRenderer(&buf)
	r.SetColorProfile(termenv.ANSI)
	styles := NewStyles(r)

	red, err := resolveManual("9h 10d", "Ks 5s")
	require.NoError(t, err)
	black, err := resolveManual("9s 10c", "Ks 5s")
	require.NoError(t, err)

	assert.Equal(t,
		lipgloss.Width(styles.renderHand(1, black, false)),
		lipgloss.Width(styles.renderHand(1, red, false)))
}

func TestDealRecordsSessionForLaterCommands(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "hands.db")
	app, out := testApp(t, cfg)

	seed := int64(42)
	require.NoError(t, (&DealCmd{Hands: 5, Seed: &seed}).Run(app))
	assert.Contains(t, out.String(), "#5")
	assert.Contains(t, out.String(), "Statistics (5 hands)")

	st, err := store.Open(cfg.Database)
	require.NoError(t, err)
	sessions, err := st.Sessions(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, sessions, 1)
	assert.Equal(t, 5, sessions[0].Hands)
	id := sessions[0].SessionID
	assert.Contains(t, out.String(), id)

	out.Reset()
	require.NoError(t, (&SessionsCmd{}).Run(app))
	assert.Contains(t, out.String(), id)

	out.Reset()
	require.NoError(t, (&RoadsCmd{Session: id, JSON: true}).Run(app))
	var report roadsReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Len(t, report.History, 5)

	exportPath := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, (&ExportCmd{Session: id, Out: exportPath}).Run(app))
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var hands []exportedHand
	require.NoError(t, json.Unmarshal(data, &hands))
	require.Len(t, hands, 5)
	for i, h := range hands {
		assert.Equal(t, i, h.Seq)
		assert.Equal(t, report.History[i], h.Result.Winner)
	}

	assert.Error(t, (&ExportCmd{Session: "missing", Out: exportPath}).Run(app))
}

func TestDealStopsAtCutCard(t *testing.T) {
	t.Parallel()

	app, out := testApp(t, nil)
	seed := int64(3)
	require.NoError(t, (&DealCmd{Hands: 50, Decks: 1, CutCard: 45, Seed: &seed, Quiet: true}).Run(app))
	assert.Contains(t, out.String(), "Cut card reached after")
	assert.Contains(t, out.String(), "cut card reached")
	assert.NotContains(t, out.String(), "#1 ")
}

func TestDealRejectsZeroHands(t *testing.T) {
	t.Parallel()

	app, _ := testApp(t, nil)
	assert.Error(t, (&DealCmd{Hands: 0}).Run(app))
}

func TestForecastCmdPlainWritesExport(t *testing.T) {
	t.Parallel()

	app, out := testApp(t, nil)
	path := filepath.Join(t.TempDir(), "forecast.json")
	seed := int64(8)

	cmd := &ForecastCmd{Iterations: 20_000, After: 3, Seed: &seed, Plain: true, Out: path}
	require.NoError(t, cmd.Run(app))
	assert.Contains(t, out.String(), "Forecast (20000 sampled hands")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var export forecastExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 20_000, export.Forecast.Total)
	assert.Equal(t, 20_000, export.Forecast.PlayerWins+export.Forecast.BankerWins+export.Forecast.Ties)
	assert.Positive(t, export.Shoe.Dealt)
}

func TestForecastIterationsFallsBackToConfig(t *testing.T) {
	t.Parallel()

	cfg := session.Config{Simulation: simulator.Config{Iterations: 30_000}}
	assert.Equal(t, 5_000, forecastIterations(5_000, cfg))
	assert.Equal(t, 30_000, forecastIterations(0, cfg))
	assert.Equal(t, simulator.DefaultIterations, forecastIterations(0, session.Config{}))
}

func TestForecastCmdLogsConfiguredIterations(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Simulation.Iterations = 20_000
	app, out := testApp(t, cfg)
	var logs bytes.Buffer
	app.Logger = log.New(&logs)

	seed := int64(4)
	require.NoError(t, (&ForecastCmd{Seed: &seed, Plain: true}).Run(app))
	assert.Contains(t, logs.String(), "iterations=20000")
	assert.NotContains(t, logs.String(), "iterations=0")
	assert.Contains(t, out.String(), "Forecast (20000 sampled hands")
}

func TestForecastModelFollowsBatches(t *testing.T) {
	t.Parallel()

	sim := simulator.New(simulator.Config{BatchSize: 1_000, Workers: 1, Seed: 5})
	task := sim.Start(context.Background(), shoe.Prepare(8, randutil.New(1)).Snapshot(), 3_000)

	m := newForecastModel(task)
	assert.Contains(t, m.View(), "starting")

	cmd := m.Init()
	var views []string
	for !m.done {
		require.NotNil(t, cmd)
		next, c := m.Update(cmd())
		m = next.(forecastModel)
		cmd = c
		views = append(views, m.View())
	}

	require.NoError(t, m.err)
	assert.Equal(t, 3_000, m.stats.Total)
	require.Len(t, views, 4)
	assert.Contains(t, views[0], "batch 1/3")
	assert.Contains(t, views[2], "batch 3/3")
	assert.Empty(t, views[3])
}
