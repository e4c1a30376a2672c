package statistics

import (
	"testing"

	"github.com/lox/baccarat/baccarat"
)

func outcomes(s string) []baccarat.Outcome {
	var out []baccarat.Outcome
	for _, r := range s {
		o, err := baccarat.ParseOutcome(string(r))
		if err != nil {
			panic(err)
		}
		out = append(out, o)
	}
	return out
}

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	if stats.PlayerPercent() != 0 || stats.BankerPercent() != 0 || stats.TiePercent() != 0 {
		t.Errorf("Expected zero percentages for empty stats")
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Expected empty stats to validate: %v", err)
	}
}

func TestStatistics_Counts(t *testing.T) {
	stats := FromOutcomes(outcomes("PPBTBBBTP"))

	if stats.Hands != 9 {
		t.Errorf("Expected 9 hands, got %d", stats.Hands)
	}
	if stats.PlayerWins != 3 || stats.BankerWins != 4 || stats.Ties != 2 {
		t.Errorf("Unexpected tallies: P=%d B=%d T=%d", stats.PlayerWins, stats.BankerWins, stats.Ties)
	}
	if stats.PlayerPercent() != 33.33 {
		t.Errorf("Expected player 33.33%%, got %f", stats.PlayerPercent())
	}
	if stats.BankerPercent() != 44.44 {
		t.Errorf("Expected banker 44.44%%, got %f", stats.BankerPercent())
	}
	if stats.TiePercent() != 22.22 {
		t.Errorf("Expected tie 22.22%%, got %f", stats.TiePercent())
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestStatistics_Streaks(t *testing.T) {
	tests := []struct {
		history       string
		longestPlayer int
		longestBanker int
		current       Streak
	}{
		{"", 0, 0, Streak{}},
		{"T", 0, 0, Streak{}},
		{"PPP", 3, 0, Streak{baccarat.Player, 3}},
		{"PPBBBP", 2, 3, Streak{baccarat.Player, 1}},
		{"BTBTB", 0, 3, Streak{baccarat.Banker, 3}},
		{"PPPPBPP", 4, 1, Streak{baccarat.Player, 2}},
	}

	for _, tt := range tests {
		stats := FromOutcomes(outcomes(tt.history))
		if stats.LongestPlayer != tt.longestPlayer {
			t.Errorf("%q: expected longest player %d, got %d", tt.history, tt.longestPlayer, stats.LongestPlayer)
		}
		if stats.LongestBanker != tt.longestBanker {
			t.Errorf("%q: expected longest banker %d, got %d", tt.history, tt.longestBanker, stats.LongestBanker)
		}
		if stats.Current != tt.current {
			t.Errorf("%q: expected current %+v, got %+v", tt.history, tt.current, stats.Current)
		}
	}
}

func TestStatistics_Naturals(t *testing.T) {
	results := []baccarat.GameResult{
		{Winner: baccarat.Player, IsNatural: true},
		{Winner: baccarat.Banker, IsNatural: false},
		{Winner: baccarat.Tie, IsNatural: true},
	}
	stats := FromResults(results)

	if stats.Naturals != 2 {
		t.Errorf("Expected 2 naturals, got %d", stats.Naturals)
	}
	if stats.Hands != 3 {
		t.Errorf("Expected 3 hands, got %d", stats.Hands)
	}
}

func TestStatistics_ValidateDetectsMismatch(t *testing.T) {
	stats := Statistics{Hands: 3, PlayerWins: 1, BankerWins: 1}
	if err := stats.Validate(); err == nil {
		t.Error("Expected outcome mismatch error")
	}

	stats = Statistics{Hands: 1, PlayerWins: 1, Naturals: 2}
	if err := stats.Validate(); err == nil {
		t.Error("Expected naturals error")
	}

	stats = Statistics{Hands: 1, PlayerWins: 1, LongestPlayer: 2}
	if err := stats.Validate(); err == nil {
		t.Error("Expected streak error")
	}
}
