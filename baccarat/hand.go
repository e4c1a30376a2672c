package baccarat

import (
	"errors"
	"fmt"
)

// NoThirdCard is passed to BankerShouldDraw when the player stood
const NoThirdCard = -1

// ErrInvalidHand reports a manually entered hand that breaks the drawing rules
var ErrInvalidHand = errors.New("invalid hand")

// Outcome is the winner of a hand
type Outcome uint8

const (
	Player Outcome = iota + 1
	Banker
	Tie
)

// String returns the single-letter symbol used in result history
func (o Outcome) String() string {
	switch o {
	case Player:
		return "P"
	case Banker:
		return "B"
	case Tie:
		return "T"
	default:
		return "?"
	}
}

// MarshalText implements encoding.TextMarshaler. The zero Outcome encodes
// as an empty string.
func (o Outcome) MarshalText() ([]byte, error) {
	if o == 0 {
		return []byte{}, nil
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*o = 0
		return nil
	}
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome parses "P", "B" or "T" (case-insensitive)
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "P", "p":
		return Player, nil
	case "B", "b":
		return Banker, nil
	case "T", "t":
		return Tie, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// ParseHistory parses a run of outcome letters such as "PBBTP". Spaces and
// commas are ignored.
func ParseHistory(s string) ([]Outcome, error) {
	history := make([]Outcome, 0, len(s))
	for i, r := range s {
		if r == ' ' || r == ',' {
			continue
		}
		o, err := ParseOutcome(string(r))
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		history = append(history, o)
	}
	return history, nil
}

// Winner decides the outcome from two final scores
func Winner(playerScore, bankerScore int) Outcome {
	switch {
	case playerScore > bankerScore:
		return Player
	case bankerScore > playerScore:
		return Banker
	default:
		return Tie
	}
}

// GameResult is the immutable record of one finished hand
type GameResult struct {
	PlayerCards []Card  `json:"playerCards"`
	BankerCards []Card  `json:"bankerCards"`
	PlayerScore int     `json:"playerScore"`
	BankerScore int     `json:"bankerScore"`
	Winner      Outcome `json:"winner"`
	IsNatural   bool    `json:"isNatural"`
}

// Score returns the sum of card values mod 10
func Score(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Value()
	}
	return total % 10
}

// IsNaturalScore reports whether a two-card score ends the hand
func IsNaturalScore(score int) bool {
	return score >= 8
}

// PlayerShouldDraw applies the player's third-card rule. Only meaningful
// once neither side holds a natural.
func PlayerShouldDraw(playerScore int) bool {
	return playerScore <= 5
}

// BankerShouldDraw applies the banker's third-card table. playerThird is the
// point value of the player's third card, or NoThirdCard if the player stood.
func BankerShouldDraw(bankerScore, playerThird int) bool {
	if bankerScore >= 7 {
		return false
	}
	if bankerScore <= 2 {
		return true
	}
	if playerThird == NoThirdCard {
		return bankerScore <= 5
	}

	switch bankerScore {
	case 3:
		return playerThird != 8
	case 4:
		return playerThird >= 2 && playerThird <= 7
	case 5:
		return playerThird >= 4 && playerThird <= 7
	case 6:
		return playerThird == 6 || playerThird == 7
	}
	return false
}

// Drawer supplies third cards while a hand is resolved
type Drawer interface {
	Draw() (Card, error)
}

// ResolveHand finishes a hand from the initial two cards on each side,
// drawing any third cards from d. Neither input slice is modified.
func ResolveHand(player, banker []Card, d Drawer) (GameResult, error) {
	if len(player) != 2 || len(banker) != 2 {
		return GameResult{}, fmt.Errorf("%w: need two cards per side, got %d and %d",
			ErrInvalidHand, len(player), len(banker))
	}
	return resolve(player, banker, d.Draw, d.Draw)
}

// ResolveManual validates a hand entered by hand (2 or 3 cards per side)
// against the drawing rules and returns the result it represents.
// A missing or extraneous third card is rejected, never corrected.
func ResolveManual(player, banker []Card) (GameResult, error) {
	if len(player) < 2 || len(player) > 3 || len(banker) < 2 || len(banker) > 3 {
		return GameResult{}, fmt.Errorf("%w: each side needs 2 or 3 cards, got %d and %d",
			ErrInvalidHand, len(player), len(banker))
	}

	src := &manualSource{player: player[2:], banker: banker[2:]}
	result, err := resolve(player[:2], banker[:2], src.drawPlayer, src.drawBanker)
	if err != nil {
		return GameResult{}, err
	}

	if len(src.player) > 0 {
		return GameResult{}, fmt.Errorf("%w: player must stand on %d", ErrInvalidHand, Score(player[:2]))
	}
	if len(src.banker) > 0 {
		return GameResult{}, fmt.Errorf("%w: banker must stand on %d", ErrInvalidHand, Score(banker[:2]))
	}
	return result, nil
}

func resolve(player2, banker2 []Card, drawPlayer, drawBanker func() (Card, error)) (GameResult, error) {
	playerCards := make([]Card, 2, 3)
	bankerCards := make([]Card, 2, 3)
	copy(playerCards, player2)
	copy(bankerCards, banker2)

	playerScore := Score(playerCards)
	bankerScore := Score(bankerCards)
	natural := IsNaturalScore(playerScore) || IsNaturalScore(bankerScore)

	if !natural {
		playerThird := NoThirdCard
		if PlayerShouldDraw(playerScore) {
			card, err := drawPlayer()
			if err != nil {
				return GameResult{}, fmt.Errorf("player third card: %w", err)
			}
			playerCards = append(playerCards, card)
			playerScore = Score(playerCards)
			playerThird = card.Value()
		}

		if BankerShouldDraw(bankerScore, playerThird) {
			card, err := drawBanker()
			if err != nil {
				return GameResult{}, fmt.Errorf("banker third card: %w", err)
			}
			bankerCards = append(bankerCards, card)
			bankerScore = Score(bankerCards)
		}
	}

	return GameResult{
		PlayerCards: playerCards,
		BankerCards: bankerCards,
		PlayerScore: playerScore,
		BankerScore: bankerScore,
		Winner:      Winner(playerScore, bankerScore),
		IsNatural:   natural,
	}, nil
}

// manualSource feeds the third cards a person entered, per side
type manualSource struct {
	player []Card
	banker []Card
}

func (m *manualSource) drawPlayer() (Card, error) {
	if len(m.player) == 0 {
		return Card{}, fmt.Errorf("%w: player must draw a third card", ErrInvalidHand)
	}
	c := m.player[0]
	m.player = m.player[1:]
	return c, nil
}

func (m *manualSource) drawBanker() (Card, error) {
	if len(m.banker) == 0 {
		return Card{}, fmt.Errorf("%w: banker must draw a third card", ErrInvalidHand)
	}
	c := m.banker[0]
	m.banker = m.banker[1:]
	return c, nil
}

// CardSource draws from a fixed sequence of cards, front first. Useful for
// replaying a known hand.
type CardSource struct {
	cards []Card
}

// NewCardSource wraps cards; the slice is not copied
func NewCardSource(cards []Card) *CardSource {
	return &CardSource{cards: cards}
}

// Draw returns the next card or an error once the sequence is spent
func (s *CardSource) Draw() (Card, error) {
	if len(s.cards) == 0 {
		return Card{}, errors.New("card source exhausted")
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c, nil
}
