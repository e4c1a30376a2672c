package main

import (
	"encoding/json"
	"fmt"

	"github.com/lox/baccarat/baccarat"
)

// ManualCmd resolves a hand from the cards actually dealt at a table
type ManualCmd struct {
	Player string `short:"p" required:"" help:"Player cards in deal order, e.g. '4h Ac 9d'"`
	Banker string `short:"b" required:"" help:"Banker cards in deal order, e.g. 'Ks 5s'"`
	JSON   bool   `help:"Print the result as JSON"`
}

func (c *ManualCmd) Run(app *App) error {
	result, err := resolveManual(c.Player, c.Banker)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(app.Out, app.Styles.renderHand(1, result, true))
	return nil
}

func resolveManual(player, banker string) (baccarat.GameResult, error) {
	p, err := baccarat.ParseCards(player)
	if err != nil {
		return baccarat.GameResult{}, fmt.Errorf("player cards: %w", err)
	}
	b, err := baccarat.ParseCards(banker)
	if err != nil {
		return baccarat.GameResult{}, fmt.Errorf("banker cards: %w", err)
	}
	return baccarat.ResolveManual(p, b)
}
