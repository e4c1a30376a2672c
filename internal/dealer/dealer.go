// Package dealer drives one live hand against a caller-owned shoe.
//
// The live path never reshuffles on its own. When the shoe reaches the cut
// card, Deal returns ErrShoeExhausted and leaves the shoe untouched; the
// caller decides when to start a fresh shoe.
package dealer

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/shoe"
)

// DefaultCutCard is the number of remaining cards at which the shoe is over
const DefaultCutCard = 15

// ErrShoeExhausted signals that the cut card has been reached
var ErrShoeExhausted = errors.New("shoe exhausted: cut card reached")

// DealOneHand deals P,B,P,B from the front of s, then resolves any third
// cards from s. The shoe is advanced in place; nothing retains it after
// the call. At least six cards must remain so a hand can never be cut short.
func DealOneHand(s *shoe.Shoe) (baccarat.GameResult, error) {
	if s.Remaining() < shoe.MaxHandCards {
		return baccarat.GameResult{}, fmt.Errorf("%w: %d cards left", shoe.ErrInsufficientShoe, s.Remaining())
	}

	var initial [4]baccarat.Card
	for i := range initial {
		c, err := s.Draw()
		if err != nil {
			return baccarat.GameResult{}, err
		}
		initial[i] = c
	}

	player := []baccarat.Card{initial[0], initial[2]}
	banker := []baccarat.Card{initial[1], initial[3]}
	return baccarat.ResolveHand(player, banker, s)
}

// Dealer applies the penetration policy on top of DealOneHand
type Dealer struct {
	cutCard int
	logger  *log.Logger
}

// New returns a dealer that stops once fewer than cutCard cards remain.
// The cut card is never placed shallower than a worst-case hand.
func New(cutCard int, logger *log.Logger) *Dealer {
	if cutCard < shoe.MaxHandCards {
		cutCard = shoe.MaxHandCards
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dealer{cutCard: cutCard, logger: logger.WithPrefix("dealer")}
}

// CutCard returns the penetration threshold in remaining cards
func (d *Dealer) CutCard() int {
	return d.cutCard
}

// Exhausted reports whether s has reached the cut card
func (d *Dealer) Exhausted(s *shoe.Shoe) bool {
	return s.Remaining() < d.cutCard
}

// Deal deals one hand, or returns ErrShoeExhausted without touching s
func (d *Dealer) Deal(s *shoe.Shoe) (baccarat.GameResult, error) {
	if d.Exhausted(s) {
		d.logger.Info("Cut card reached", "remaining", s.Remaining(), "cutCard", d.cutCard)
		return baccarat.GameResult{}, ErrShoeExhausted
	}

	result, err := DealOneHand(s)
	if err != nil {
		return baccarat.GameResult{}, err
	}

	d.logger.Debug("Hand dealt",
		"winner", result.Winner,
		"player", result.PlayerScore,
		"banker", result.BankerScore,
		"natural", result.IsNatural,
		"remaining", s.Remaining())
	return result, nil
}
