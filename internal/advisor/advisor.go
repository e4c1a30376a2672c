// Package advisor suggests a next bet from the shape of recent outcomes.
//
// The rules are pattern heuristics only. Outcomes are independent, so no
// suggestion carries any edge over the house.
package advisor

import (
	"github.com/lox/baccarat/baccarat"
)

// Rule identifies which pattern produced a suggestion
type Rule string

const (
	RuleWaiting  Rule = "waiting"
	RuleDragon   Rule = "dragon"
	RulePingPong Rule = "ping_pong"
	RuleDouble   Rule = "double"
	RuleTrend    Rule = "trend"
	RuleNone     Rule = "none"
)

// Confidence of each rule, in percent
const (
	dragonConfidence   = 85
	pingPongConfidence = 75
	doubleConfidence   = 60
	trendConfidence    = 50
	noneConfidence     = 20
)

const (
	minDragon   = 4
	trendWindow = 6
	trendMargin = 2
	minHistory  = 3
)

// Advice is a suggested next bet. Next is zero when no bet is suggested.
type Advice struct {
	Next       baccarat.Outcome `json:"next,omitempty"`
	Rule       Rule             `json:"rule"`
	Confidence int              `json:"confidence"`
}

// HasBet reports whether the advice names a side
func (a Advice) HasBet() bool {
	return a.Next == baccarat.Player || a.Next == baccarat.Banker
}

// Advise applies the rules in priority order. Ties are ignored.
func Advise(history []baccarat.Outcome) Advice {
	h := make([]baccarat.Outcome, 0, len(history))
	for _, o := range history {
		if o != baccarat.Tie {
			h = append(h, o)
		}
	}

	if len(h) < minHistory {
		return Advice{Rule: RuleWaiting}
	}

	n := len(h)
	last, last2, last3 := h[n-1], h[n-2], h[n-3]

	streak := 0
	for i := n - 1; i >= 0 && h[i] == last; i-- {
		streak++
	}
	if streak >= minDragon {
		return Advice{Next: last, Rule: RuleDragon, Confidence: dragonConfidence}
	}

	if last != last2 && last2 != last3 {
		return Advice{Next: opposite(last), Rule: RulePingPong, Confidence: pingPongConfidence}
	}

	if n >= 4 {
		last4 := h[n-4]
		if last == last2 && last3 == last4 && last != last3 {
			return Advice{Next: opposite(last), Rule: RuleDouble, Confidence: doubleConfidence}
		}
	}

	var players, bankers int
	for _, o := range h[max(0, n-trendWindow):] {
		if o == baccarat.Player {
			players++
		} else {
			bankers++
		}
	}
	switch {
	case players-bankers >= trendMargin:
		return Advice{Next: baccarat.Player, Rule: RuleTrend, Confidence: trendConfidence}
	case bankers-players >= trendMargin:
		return Advice{Next: baccarat.Banker, Rule: RuleTrend, Confidence: trendConfidence}
	}

	return Advice{Rule: RuleNone, Confidence: noneConfidence}
}

func opposite(o baccarat.Outcome) baccarat.Outcome {
	if o == baccarat.Player {
		return baccarat.Banker
	}
	return baccarat.Player
}
