package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/fileutil"
	"github.com/lox/baccarat/internal/store"
)

// SessionsCmd lists stored sessions, most recently played first
type SessionsCmd struct{}

func (c *SessionsCmd) Run(app *App) error {
	st, err := app.openStore(true)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sessions, err := st.Sessions(context.Background())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(app.Out, app.Styles.Muted.Render("No sessions recorded"))
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tHANDS\tFIRST\tLAST")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.SessionID, s.Hands,
			s.FirstHand.Local().Format(time.DateTime), s.LastHand.Local().Format(time.DateTime))
	}
	return w.Flush()
}

// ExportCmd writes every hand of a stored session to a JSON file
type ExportCmd struct {
	Session string `arg:"" help:"Session ID"`
	Out     string `short:"o" required:"" help:"Destination JSON file"`
}

type exportedHand struct {
	Seq     int                 `json:"seq"`
	Manual  bool                `json:"manual"`
	DealtAt time.Time           `json:"dealtAt"`
	Result  baccarat.GameResult `json:"result"`
}

func (c *ExportCmd) Run(app *App) error {
	st, err := app.openStore(true)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	hands, err := st.Hands(context.Background(), c.Session)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("session %s has no recorded hands", c.Session)
	} else if err != nil {
		return err
	}

	out := make([]exportedHand, len(hands))
	for i, h := range hands {
		out[i] = exportedHand{Seq: h.Seq, Manual: h.Manual, DealtAt: h.DealtAt, Result: h.Result}
	}
	if err := fileutil.WriteJSON(c.Out, out); err != nil {
		return err
	}
	app.Logger.Info("Exported session", "session", c.Session, "hands", len(hands), "path", c.Out)
	return nil
}
