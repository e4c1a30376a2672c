// Package baccarat implements punto banco scoring and third-card rules.
//
// Everything in this package is pure: hands are resolved from their initial
// four cards plus a Drawer that supplies any third cards.
//
// # Basic Usage
//
// Resolve a dealt hand against a shoe:
//
//	player := []baccarat.Card{p1, p2}
//	banker := []baccarat.Card{b1, b2}
//	result, err := baccarat.ResolveHand(player, banker, shoe)
//
// Validate a hand that was entered manually:
//
//	result, err := baccarat.ResolveManual(
//	    baccarat.MustParseCards("4h Ac 9d"),
//	    baccarat.MustParseCards("Ks 5s"),
//	)
//	if errors.Is(err, baccarat.ErrInvalidHand) {
//	    // missing or extra third card
//	}
package baccarat
