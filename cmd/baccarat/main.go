package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"

	"github.com/lox/baccarat/internal/config"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
	"github.com/lox/baccarat/internal/store"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `help:"Show version"`
	Config   string           `short:"c" default:"baccarat.hcl" help:"Path to HCL configuration file"`
	EnvFile  string           `name:"env-file" default:".env" help:"Environment file loaded before configuration"`
	LogLevel string           `short:"l" help:"Log level: debug, info, warn or error (overrides config)"`
	Verbose  bool             `help:"Shorthand for --log-level=debug"`
	NoColor  bool             `name:"no-color" help:"Disable coloured output"`
	Database string           `name:"db" help:"SQLite database for hand history (overrides config)"`

	Deal     DealCmd     `cmd:"" help:"Deal hands from a freshly prepared shoe"`
	Manual   ManualCmd   `cmd:"" help:"Resolve a hand entered card by card"`
	Forecast ForecastCmd `cmd:"" help:"Forecast the next hand by sampling the remaining shoe"`
	Roads    RoadsCmd    `cmd:"" help:"Draw the big road and derived roads for a history"`
	Sessions SessionsCmd `cmd:"" help:"List sessions stored in the database"`
	Export   ExportCmd   `cmd:"" help:"Write a stored session to a JSON file"`
	Serve    ServeCmd    `cmd:"" help:"Run the WebSocket table server"`
}

// App is shared by every command
type App struct {
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
	Styles Styles
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("baccarat"),
		kong.Description("Baccarat dealing, forecasting and road maps"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	app, err := cli.setup(os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}

// setup loads .env and configuration, then builds the logger and styles
func (c *CLI) setup(stdout, stderr io.Writer) (*App, error) {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", c.EnvFile, err)
		}
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.Verbose {
		cfg.LogLevel = "debug"
	}
	if c.Database != "" {
		cfg.Database = c.Database
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	profile := termenv.NewOutput(stdout).EnvColorProfile()
	if c.NoColor {
		profile = termenv.Ascii
	}

	logger := log.NewWithOptions(stderr, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
	})
	logger.SetColorProfile(profile)

	renderer := lipgloss.NewRenderer(stdout)
	renderer.SetColorProfile(profile)

	return &App{
		Config: cfg,
		Logger: logger,
		Out:    stdout,
		Styles: NewStyles(renderer),
	}, nil
}

// sessionConfig builds table settings from configuration, letting non-zero
// flag values win
func (a *App) sessionConfig(decks, cutCard int) session.Config {
	cfg := session.Config{
		Decks:   a.Config.Shoe.Decks,
		CutCard: a.Config.Shoe.CutCard,
		Simulation: simulator.Config{
			Iterations: a.Config.Simulation.Iterations,
			BatchSize:  a.Config.Simulation.BatchSize,
			Workers:    a.Config.Simulation.Workers,
		},
	}
	if decks > 0 {
		cfg.Decks = decks
	}
	if cutCard > 0 {
		cfg.CutCard = cutCard
	}
	return cfg
}

// openStore opens the configured database. The returned store is nil when
// no database is configured and required is false.
func (a *App) openStore(required bool) (*store.Store, error) {
	if a.Config.Database == "" {
		if required {
			return nil, errors.New("no database configured: pass --db or set BACCARAT_DATABASE")
		}
		return nil, nil
	}
	st, err := store.Open(a.Config.Database)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("Opened database", "path", a.Config.Database)
	return st, nil
}
