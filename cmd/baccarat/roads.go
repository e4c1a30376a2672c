package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/advisor"
	"github.com/lox/baccarat/internal/roadmap"
	"github.com/lox/baccarat/internal/statistics"
	"github.com/lox/baccarat/internal/store"
)

// RoadsCmd renders road maps for a literal history or a stored session
type RoadsCmd struct {
	History string `arg:"" optional:"" help:"Outcome history such as 'PBBTP'"`
	Session string `short:"s" help:"Read the history of a stored session instead"`
	JSON    bool   `help:"Print roads, statistics and advice as JSON"`
}

type roadsReport struct {
	History    []baccarat.Outcome    `json:"history"`
	Roads      roadmap.Roads         `json:"roads"`
	Statistics statistics.Statistics `json:"statistics"`
	Advice     advisor.Advice        `json:"advice"`
}

func (c *RoadsCmd) Run(app *App) error {
	history, err := c.history(context.Background(), app)
	if err != nil {
		return err
	}

	report := roadsReport{
		History:    history,
		Roads:      roadmap.Map(history),
		Statistics: statistics.FromOutcomes(history),
		Advice:     advisor.Advise(history),
	}

	if c.JSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintln(app.Out, app.Styles.renderRoads(report.Roads))
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, app.Styles.renderStatistics(report.Statistics))
	fmt.Fprintln(app.Out, app.Styles.renderAdvice(report.Advice))
	return nil
}

func (c *RoadsCmd) history(ctx context.Context, app *App) ([]baccarat.Outcome, error) {
	switch {
	case c.Session != "" && c.History != "":
		return nil, errors.New("pass either a history or --session, not both")
	case c.Session == "":
		return baccarat.ParseHistory(c.History)
	}

	st, err := app.openStore(true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	hands, err := st.Hands(ctx, c.Session)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("session %s has no recorded hands", c.Session)
	} else if err != nil {
		return nil, err
	}

	history := make([]baccarat.Outcome, len(hands))
	for i, h := range hands {
		history[i] = h.Result.Winner
	}
	return history, nil
}
