// Package shoe manages the multi-deck shoe: building, shuffling, burning
// and handing out immutable snapshots for simulation.
package shoe

import (
	"errors"
	"math/rand/v2"

	"github.com/lox/baccarat/baccarat"
)

const (
	// DefaultDecks is the standard punto banco shoe size
	DefaultDecks = 8

	// CardsPerDeck is the size of one standard deck
	CardsPerDeck = 52

	// MaxHandCards is the most cards a single hand can consume
	MaxHandCards = 6
)

// ErrInsufficientShoe is returned when the shoe cannot cover a worst-case hand
var ErrInsufficientShoe = errors.New("insufficient cards in shoe")

// Shoe is an ordered pool of undealt cards. Cards leave from the front only.
// A Shoe is owned by one caller at a time and is not safe for concurrent use.
type Shoe struct {
	cards  []baccarat.Card
	next   int
	burned int
}

// New builds a shoe of numDecks decks and shuffles it with rng
func New(numDecks int, rng *rand.Rand) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}

	s := &Shoe{cards: make([]baccarat.Card, 0, numDecks*CardsPerDeck)}
	for range numDecks {
		for _, suit := range baccarat.Suits {
			for _, rank := range baccarat.Ranks {
				s.cards = append(s.cards, baccarat.NewCard(rank, suit))
			}
		}
	}

	s.shuffle(rng)
	return s
}

// Prepare builds, shuffles and burns a shoe: standard session start
func Prepare(numDecks int, rng *rand.Rand) *Shoe {
	s := New(numDecks, rng)
	s.Burn()
	return s
}

// FromCards creates a shoe that deals cards in the given order
func FromCards(cards []baccarat.Card) *Shoe {
	s := &Shoe{cards: make([]baccarat.Card, len(cards))}
	copy(s.cards, cards)
	return s
}

// shuffle is an unbiased Fisher-Yates over the undealt cards
func (s *Shoe) shuffle(rng *rand.Rand) {
	cards := s.cards[s.next:]
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Burn exposes the cut card and discards as many further cards as its burn
// count. It returns the cut card and the total number of cards removed,
// including the cut card itself. Burning an empty shoe does nothing.
func (s *Shoe) Burn() (baccarat.Card, int) {
	cut, err := s.Draw()
	if err != nil {
		return baccarat.Card{}, 0
	}

	count := min(cut.Rank.BurnCount(), s.Remaining())
	s.next += count
	s.burned += count + 1
	return cut, count + 1
}

// Draw removes and returns the next card
func (s *Shoe) Draw() (baccarat.Card, error) {
	if s.next >= len(s.cards) {
		return baccarat.Card{}, ErrInsufficientShoe
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// Remaining returns the number of undealt cards
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

// Size returns the number of cards the shoe was built with
func (s *Shoe) Size() int {
	return len(s.cards)
}

// Burned returns how many cards were discarded by Burn
func (s *Shoe) Burned() int {
	return s.burned
}

// Dealt returns how many cards have left the shoe, burned ones included
func (s *Shoe) Dealt() int {
	return s.next
}

// Snapshot returns an immutable copy of the undealt cards
func (s *Shoe) Snapshot() Snapshot {
	cards := make([]baccarat.Card, s.Remaining())
	copy(cards, s.cards[s.next:])
	return Snapshot{cards: cards}
}

// Snapshot is a read-only view of a shoe's undealt cards at one moment.
// It never changes after creation, so it may be shared between goroutines.
type Snapshot struct {
	cards []baccarat.Card
}

// NewSnapshot copies cards into a snapshot
func NewSnapshot(cards []baccarat.Card) Snapshot {
	c := make([]baccarat.Card, len(cards))
	copy(c, cards)
	return Snapshot{cards: c}
}

// Len returns the number of cards in the snapshot
func (s Snapshot) Len() int {
	return len(s.cards)
}

// At returns the card at position i
func (s Snapshot) At(i int) baccarat.Card {
	return s.cards[i]
}

// Values returns the point value of every card, in order
func (s Snapshot) Values() []uint8 {
	values := make([]uint8, len(s.cards))
	for i, c := range s.cards {
		values[i] = uint8(c.Value())
	}
	return values
}
