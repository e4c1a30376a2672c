package statistics

import (
	"fmt"
	"math"

	"github.com/lox/baccarat/baccarat"
)

// Streak is a run of consecutive wins for one side
type Streak struct {
	Outcome baccarat.Outcome `json:"outcome"`
	Length  int              `json:"length"`
}

// Statistics tracks outcome tallies over a session's hand history.
// Ties never break a streak.
type Statistics struct {
	Hands      int `json:"hands"`
	PlayerWins int `json:"playerWins"`
	BankerWins int `json:"bankerWins"`
	Ties       int `json:"ties"`
	Naturals   int `json:"naturals"`

	LongestPlayer int    `json:"longestPlayer"`
	LongestBanker int    `json:"longestBanker"`
	Current       Streak `json:"current"`
}

// Add incorporates one hand outcome
func (s *Statistics) Add(outcome baccarat.Outcome, natural bool) {
	s.Hands++
	if natural {
		s.Naturals++
	}

	switch outcome {
	case baccarat.Player:
		s.PlayerWins++
	case baccarat.Banker:
		s.BankerWins++
	case baccarat.Tie:
		s.Ties++
		return
	}

	if s.Current.Outcome == outcome {
		s.Current.Length++
	} else {
		s.Current = Streak{Outcome: outcome, Length: 1}
	}

	switch outcome {
	case baccarat.Player:
		s.LongestPlayer = max(s.LongestPlayer, s.Current.Length)
	case baccarat.Banker:
		s.LongestBanker = max(s.LongestBanker, s.Current.Length)
	}
}

// AddResult incorporates a resolved hand
func (s *Statistics) AddResult(r baccarat.GameResult) {
	s.Add(r.Winner, r.IsNatural)
}

// FromResults tallies a slice of resolved hands
func FromResults(results []baccarat.GameResult) Statistics {
	var s Statistics
	for _, r := range results {
		s.AddResult(r)
	}
	return s
}

// FromOutcomes tallies a bare outcome history; naturals are unknown and
// stay zero
func FromOutcomes(history []baccarat.Outcome) Statistics {
	var s Statistics
	for _, o := range history {
		s.Add(o, false)
	}
	return s
}

// PlayerPercent returns the share of hands won by player, in percent
func (s *Statistics) PlayerPercent() float64 {
	return s.percent(s.PlayerWins)
}

// BankerPercent returns the share of hands won by banker, in percent
func (s *Statistics) BankerPercent() float64 {
	return s.percent(s.BankerWins)
}

// TiePercent returns the share of tied hands, in percent
func (s *Statistics) TiePercent() float64 {
	return s.percent(s.Ties)
}

func (s *Statistics) percent(n int) float64 {
	if s.Hands == 0 {
		return 0
	}
	return math.Round(float64(n)*10000/float64(s.Hands)) / 100
}

// Validate performs consistency checks on the tallies
func (s *Statistics) Validate() error {
	if s.Hands < 0 {
		return fmt.Errorf("invalid hand count: %d", s.Hands)
	}
	if sum := s.PlayerWins + s.BankerWins + s.Ties; sum != s.Hands {
		return fmt.Errorf("outcome mismatch: player=%d banker=%d tie=%d, hands=%d",
			s.PlayerWins, s.BankerWins, s.Ties, s.Hands)
	}
	if s.Naturals > s.Hands {
		return fmt.Errorf("naturals %d exceed hands %d", s.Naturals, s.Hands)
	}
	if s.LongestPlayer > s.PlayerWins || s.LongestBanker > s.BankerWins {
		return fmt.Errorf("streak exceeds wins: player %d/%d banker %d/%d",
			s.LongestPlayer, s.PlayerWins, s.LongestBanker, s.BankerWins)
	}
	return nil
}
