package simulator

import (
	"math/rand/v2"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/shoe"
)

// hand records which snapshot positions one sampled hand used, in deal order:
// P1 B1 P2 B2 then any player and banker third cards.
type hand struct {
	pos  [shoe.MaxHandCards]int
	used int
}

// tally accumulates outcomes for one worker, batch or run
type tally struct {
	playerWins int
	bankerWins int
	ties       int

	// first sampled hand won by each side, kept for display
	playerExample *hand
	bankerExample *hand
}

func (t *tally) total() int {
	return t.playerWins + t.bankerWins + t.ties
}

// merge folds o into t. Examples already held by t win.
func (t *tally) merge(o tally) {
	t.playerWins += o.playerWins
	t.bankerWins += o.bankerWins
	t.ties += o.ties
	if t.playerExample == nil {
		t.playerExample = o.playerExample
	}
	if t.bankerExample == nil {
		t.bankerExample = o.bankerExample
	}
}

// pick returns a position not already used by h and records it
func (h *hand) pick(rng *rand.Rand, size int) int {
	for {
		p := rng.IntN(size)
		taken := false
		for _, q := range h.pos[:h.used] {
			if q == p {
				taken = true
				break
			}
		}
		if !taken {
			h.pos[h.used] = p
			h.used++
			return p
		}
	}
}

// playOne samples one hand from values without replacement and applies the
// same drawing rules as baccarat.ResolveHand
func playOne(values []uint8, rng *rand.Rand, h *hand) baccarat.Outcome {
	size := len(values)
	h.used = 0

	p1 := int(values[h.pick(rng, size)])
	b1 := int(values[h.pick(rng, size)])
	p2 := int(values[h.pick(rng, size)])
	b2 := int(values[h.pick(rng, size)])

	playerScore := (p1 + p2) % 10
	bankerScore := (b1 + b2) % 10

	if !baccarat.IsNaturalScore(playerScore) && !baccarat.IsNaturalScore(bankerScore) {
		playerThird := baccarat.NoThirdCard
		if baccarat.PlayerShouldDraw(playerScore) {
			playerThird = int(values[h.pick(rng, size)])
			playerScore = (playerScore + playerThird) % 10
		}
		if baccarat.BankerShouldDraw(bankerScore, playerThird) {
			bankerScore = (bankerScore + int(values[h.pick(rng, size)])) % 10
		}
	}

	return baccarat.Winner(playerScore, bankerScore)
}

// sampleHands plays n independent hands against values
func sampleHands(values []uint8, n int, rng *rand.Rand) tally {
	var t tally
	var h hand
	for range n {
		switch playOne(values, rng, &h) {
		case baccarat.Player:
			t.playerWins++
			if t.playerExample == nil {
				example := h
				t.playerExample = &example
			}
		case baccarat.Banker:
			t.bankerWins++
			if t.bankerExample == nil {
				example := h
				t.bankerExample = &example
			}
		default:
			t.ties++
		}
	}
	return t
}

// rebuild turns a sampled hand back into a full GameResult
func rebuild(snap shoe.Snapshot, h *hand) (baccarat.GameResult, error) {
	cards := make([]baccarat.Card, h.used)
	for i, p := range h.pos[:h.used] {
		cards[i] = snap.At(p)
	}
	player := []baccarat.Card{cards[0], cards[2]}
	banker := []baccarat.Card{cards[1], cards[3]}
	return baccarat.ResolveHand(player, banker, baccarat.NewCardSource(cards[4:]))
}
