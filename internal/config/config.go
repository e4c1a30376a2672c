// Package config loads baccarat settings from an HCL file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "BACCARAT_"

const (
	defaultDecks      = 8
	defaultCutCard    = 15
	minCutCard        = 6
	maxDecks          = 16
	defaultIterations = 1_000_000
	defaultBatchSize  = 50_000
	maxBatchSize      = 100_000
	maxWorkers        = 8
	defaultAddress    = "localhost"
	defaultPort       = 8080
	defaultLogLevel   = "info"
)

// Config is the complete application configuration
type Config struct {
	LogLevel   string             `env:"LOG_LEVEL"`
	Database   string             `env:"DATABASE"`
	Shoe       ShoeSettings
	Simulation SimulationSettings
	Server     ServerSettings
}

// ShoeSettings controls shoe construction and penetration
type ShoeSettings struct {
	Decks   int `hcl:"decks,optional" env:"DECKS"`
	CutCard int `hcl:"cut_card,optional" env:"CUT_CARD"`
}

// SimulationSettings controls forecasting runs
type SimulationSettings struct {
	Iterations int `hcl:"iterations,optional" env:"ITERATIONS"`
	BatchSize  int `hcl:"batch_size,optional" env:"BATCH_SIZE"`
	Workers    int `hcl:"workers,optional" env:"WORKERS"`
}

// ServerSettings controls the websocket server
type ServerSettings struct {
	Address string `hcl:"address,optional" env:"ADDRESS"`
	Port    int    `hcl:"port,optional" env:"PORT"`
}

// file mirrors the HCL layout; every block is optional
type file struct {
	LogLevel   string              `hcl:"log_level,optional"`
	Database   string              `hcl:"database,optional"`
	Shoe       *ShoeSettings       `hcl:"shoe,block"`
	Simulation *SimulationSettings `hcl:"simulation,block"`
	Server     *ServerSettings     `hcl:"server,block"`
}

// Default returns the built-in configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename, applies environment overrides and fills in
// defaults. A missing file is not an error.
func Load(filename string) (*Config, error) {
	c := &Config{}

	if filename != "" {
		src, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if c, err = Parse(src, filename); err != nil {
				return nil, err
			}
		}
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}

// Parse decodes HCL source without applying defaults or overrides
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	c := &Config{LogLevel: raw.LogLevel, Database: raw.Database}
	if raw.Shoe != nil {
		c.Shoe = *raw.Shoe
	}
	if raw.Simulation != nil {
		c.Simulation = *raw.Simulation
	}
	if raw.Server != nil {
		c.Server = *raw.Server
	}
	return c, nil
}

// ApplyEnv overrides settings from BACCARAT_* environment variables
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Shoe.Decks == 0 {
		c.Shoe.Decks = defaultDecks
	}
	if c.Shoe.CutCard == 0 {
		c.Shoe.CutCard = defaultCutCard
	}
	if c.Simulation.Iterations == 0 {
		c.Simulation.Iterations = defaultIterations
	}
	if c.Simulation.BatchSize == 0 {
		c.Simulation.BatchSize = defaultBatchSize
	}
	if c.Simulation.Workers == 0 {
		c.Simulation.Workers = min(runtime.NumCPU(), maxWorkers)
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Shoe.Decks < 1 || c.Shoe.Decks > maxDecks {
		return fmt.Errorf("shoe: decks must be between 1 and %d, got %d", maxDecks, c.Shoe.Decks)
	}
	if c.Shoe.CutCard < minCutCard {
		return fmt.Errorf("shoe: cut card must be at least %d, got %d", minCutCard, c.Shoe.CutCard)
	}
	if c.Shoe.CutCard >= c.Shoe.Decks*52 {
		return fmt.Errorf("shoe: cut card %d leaves no cards to deal from %d decks", c.Shoe.CutCard, c.Shoe.Decks)
	}
	if c.Simulation.Iterations <= 0 {
		return fmt.Errorf("simulation: iterations must be positive")
	}
	if c.Simulation.BatchSize <= 0 || c.Simulation.BatchSize > maxBatchSize {
		return fmt.Errorf("simulation: batch size must be between 1 and %d, got %d", maxBatchSize, c.Simulation.BatchSize)
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation: workers must be positive")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Level returns the parsed log level, falling back to info
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ServerAddress returns the listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
