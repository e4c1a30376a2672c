package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lox/baccarat/internal/server"
)

// ServeCmd runs the WebSocket table server
type ServeCmd struct {
	Addr string `help:"Listen address, e.g. ':8080' (overrides config)"`
	Seed int64  `help:"Deterministic seed for every session's shoe (0 shuffles randomly)"`
}

func (c *ServeCmd) Run(app *App) error {
	ctx, cancel := signalContext(app)
	defer cancel()

	addr := c.Addr
	if addr == "" {
		addr = app.Config.ServerAddress()
	}

	opts := server.Options{
		Session: app.sessionConfig(0, 0),
		Logger:  app.Logger,
		Seed:    c.Seed,
	}

	st, err := app.openStore(false)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
		opts.Recorder = st
	}

	app.Logger.Info("Starting baccarat server",
		"addr", addr,
		"decks", opts.Session.Decks,
		"cut_card", opts.Session.CutCard,
		"iterations", opts.Session.Simulation.Iterations,
		"database", app.Config.Database)

	return server.NewServer(opts).ListenAndServe(ctx, addr)
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext(app *App) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			app.Logger.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
