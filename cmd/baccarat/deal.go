package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/dealer"
	"github.com/lox/baccarat/internal/session"
)

// DealCmd deals hands from a new shoe and prints the resulting table view
type DealCmd struct {
	Hands   int    `short:"n" default:"1" help:"Number of hands to deal"`
	Decks   int    `help:"Decks in the shoe (overrides config)"`
	CutCard int    `name:"cut-card" help:"Cards left when the shoe is exhausted (overrides config)"`
	Seed    *int64 `help:"Deterministic shuffle seed"`
	Quiet   bool   `short:"q" help:"Only print the summary"`
}

func (c *DealCmd) Run(app *App) error {
	if c.Hands < 1 {
		return fmt.Errorf("--hands must be at least 1, got %d", c.Hands)
	}

	ctx, cancel := signalContext(app)
	defer cancel()

	st, err := app.openStore(false)
	if err != nil {
		return err
	}

	opts := []session.Option{session.WithLogger(app.Logger)}
	if st != nil {
		defer func() { _ = st.Close() }()
		opts = append(opts, session.WithRecorder(st))
	}
	if c.Seed != nil {
		opts = append(opts, session.WithSeed(*c.Seed))
	}

	sess, err := session.New(app.sessionConfig(c.Decks, c.CutCard), opts...)
	if err != nil {
		return err
	}
	app.Logger.Info("Dealing", "session", sess.ID(), "hands", c.Hands)

	dealt, err := dealHands(ctx, sess, c.Hands, func(n int, r baccarat.GameResult) {
		if !c.Quiet {
			fmt.Fprintln(app.Out, app.Styles.renderHand(n, r, false))
		}
	})
	if errors.Is(err, dealer.ErrShoeExhausted) {
		fmt.Fprintln(app.Out, app.Styles.Warning.Render(
			fmt.Sprintf("Cut card reached after %d of %d hands", dealt, c.Hands)))
	} else if err != nil {
		return err
	}

	printTable(app, sess)
	if st != nil {
		fmt.Fprintf(app.Out, "\n%s %s\n", app.Styles.Muted.Render("session"), sess.ID())
	}
	return nil
}

// dealHands deals up to n hands, stopping at the first error or when ctx is
// done. It returns the number of hands dealt.
func dealHands(ctx context.Context, sess *session.Session, n int, each func(int, baccarat.GameResult)) (int, error) {
	for i := range n {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		r, err := sess.Deal(ctx)
		if err != nil {
			return i, err
		}
		if each != nil {
			each(i+1, r)
		}
	}
	return n, nil
}

// printTable prints roads, statistics, advice and shoe state of a session
func printTable(app *App, sess *session.Session) {
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, app.Styles.renderRoads(sess.Roads()))
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, app.Styles.renderStatistics(sess.Statistics()))
	fmt.Fprintln(app.Out, app.Styles.renderAdvice(sess.Advice()))
	fmt.Fprintln(app.Out, app.Styles.renderShoe(sess.ShoeStatus()))
}
