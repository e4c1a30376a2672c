package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/advisor"
	"github.com/lox/baccarat/internal/roadmap"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
	"github.com/lox/baccarat/internal/statistics"
)

// Styles holds every style the CLI prints with
type Styles struct {
	Header  lipgloss.Style
	Player  lipgloss.Style
	Banker  lipgloss.Style
	Tie     lipgloss.Style
	Red     lipgloss.Style
	Blue    lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Label   lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		Player:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Banker:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Tie:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Red:     r.NewStyle().Foreground(lipgloss.Color("9")),
		Blue:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		Label:   r.NewStyle().Width(10),
	}
}

func (s Styles) outcome(o baccarat.Outcome) lipgloss.Style {
	switch o {
	case baccarat.Player:
		return s.Player
	case baccarat.Banker:
		return s.Banker
	default:
		return s.Tie
	}
}

func outcomeName(o baccarat.Outcome) string {
	switch o {
	case baccarat.Player:
		return "Player"
	case baccarat.Banker:
		return "Banker"
	case baccarat.Tie:
		return "Tie"
	}
	return "-"
}

// cards renders a hand with hearts and diamonds in red
func (s Styles) cards(cards []baccarat.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.Pretty()
		if c.Suit.IsRed() {
			parts[i] = s.Red.Render(parts[i])
		}
	}
	return strings.Join(parts, " ")
}

// padRight pads to a printed width, ignoring ANSI sequences
func padRight(str string, width int) string {
	if w := lipgloss.Width(str); w < width {
		return str + strings.Repeat(" ", width-w)
	}
	return str
}

// renderHand prints one line per hand: "#3  P: 9♥ 10♣ (9)  B: K♠ 5♠ (5)  Player natural"
func (s Styles) renderHand(n int, r baccarat.GameResult, manual bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  ", s.Muted.Render(fmt.Sprintf("#%-3d", n)))
	fmt.Fprintf(&b, "%s %s", s.Player.Render("P:"), padRight(fmt.Sprintf("%s (%d)", s.cards(r.PlayerCards), r.PlayerScore), 14))
	fmt.Fprintf(&b, "  %s %s  ", s.Banker.Render("B:"), padRight(fmt.Sprintf("%s (%d)", s.cards(r.BankerCards), r.BankerScore), 14))
	b.WriteString(s.outcome(r.Winner).Render(outcomeName(r.Winner)))
	if r.IsNatural {
		b.WriteString(s.Muted.Render(" natural"))
	}
	if manual {
		b.WriteString(s.Muted.Render(" (manual)"))
	}
	return b.String()
}

// renderBigRoad draws the bead grid row by row. Empty cells are dots and
// tie counts follow the outcome letter.
func (s Styles) renderBigRoad(road *roadmap.BigRoad) string {
	if road.Len() == 0 {
		return s.Muted.Render("(empty)")
	}

	var b strings.Builder
	for row, cells := range road.Grid() {
		for _, cell := range cells {
			switch {
			case cell.Outcome == 0:
				b.WriteString(s.Muted.Render(" . "))
			case cell.Ties > 0:
				b.WriteString(s.outcome(cell.Outcome).Render(fmt.Sprintf("%s%-2d", cell.Outcome, cell.Ties)))
			default:
				b.WriteString(s.outcome(cell.Outcome).Render(" " + cell.Outcome.String() + " "))
			}
		}
		if row < roadmap.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s Styles) renderColors(colors []roadmap.Color) string {
	if len(colors) == 0 {
		return s.Muted.Render("-")
	}
	var b strings.Builder
	for _, c := range colors {
		if c == roadmap.Red {
			b.WriteString(s.Red.Render("R"))
		} else {
			b.WriteString(s.Blue.Render("B"))
		}
	}
	return b.String()
}

func (s Styles) renderRoads(roads roadmap.Roads) string {
	var b strings.Builder
	b.WriteString(s.Header.Render("Big Road"))
	b.WriteByte('\n')
	b.WriteString(s.renderBigRoad(roads.BigRoad))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Big Eye"), s.renderColors(roads.BigEyeBoy))
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Small"), s.renderColors(roads.SmallRoad))
	fmt.Fprintf(&b, "%s %s", s.Label.Render("Cockroach"), s.renderColors(roads.Cockroach))
	return b.String()
}

func (s Styles) renderStatistics(st statistics.Statistics) string {
	var b strings.Builder
	b.WriteString(s.Header.Render(fmt.Sprintf("Statistics (%d hands)", st.Hands)))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s %4d  %6.2f%%\n", s.Player.Render(fmt.Sprintf("%-8s", "Player")), st.PlayerWins, st.PlayerPercent())
	fmt.Fprintf(&b, "%s %4d  %6.2f%%\n", s.Banker.Render(fmt.Sprintf("%-8s", "Banker")), st.BankerWins, st.BankerPercent())
	fmt.Fprintf(&b, "%s %4d  %6.2f%%\n", s.Tie.Render(fmt.Sprintf("%-8s", "Tie")), st.Ties, st.TiePercent())
	fmt.Fprintf(&b, "%s naturals %d, longest player run %d, longest banker run %d",
		s.Muted.Render("·"), st.Naturals, st.LongestPlayer, st.LongestBanker)
	if st.Current.Length > 0 {
		fmt.Fprintf(&b, ", current %s x%d", outcomeName(st.Current.Outcome), st.Current.Length)
	}
	return b.String()
}

func (s Styles) renderAdvice(a advisor.Advice) string {
	if !a.HasBet() {
		return fmt.Sprintf("%s %s", s.Header.Render("Advice"), s.Muted.Render(fmt.Sprintf("no bet (%s)", a.Rule)))
	}
	return fmt.Sprintf("%s %s %s", s.Header.Render("Advice"),
		s.outcome(a.Next).Render(outcomeName(a.Next)),
		s.Muted.Render(fmt.Sprintf("(%s, %d%% confidence)", a.Rule, a.Confidence)))
}

func (s Styles) renderShoe(st session.ShoeStatus) string {
	line := fmt.Sprintf("%s %d of %d cards left, %d burned, %d dealt, %.1f%% penetration",
		s.Header.Render("Shoe"), st.Remaining, st.Size, st.Burned, st.Dealt, 100*st.Penetration)
	if st.Exhausted {
		line += " " + s.Warning.Render("cut card reached")
	}
	return line
}

func (s Styles) renderForecast(stats simulator.Stats) string {
	var b strings.Builder
	b.WriteString(s.Header.Render(fmt.Sprintf("Forecast (%d sampled hands, %s)", stats.Total, stats.Elapsed.Round(time.Millisecond))))
	b.WriteByte('\n')
	leader := stats.Leader()
	row := func(o baccarat.Outcome, wins int, prob float64) {
		name := s.outcome(o).Render(fmt.Sprintf("%-8s", outcomeName(o)))
		fmt.Fprintf(&b, "%s %8d  %6.2f%%", name, wins, prob)
		if o == leader {
			b.WriteString(s.Muted.Render("  <"))
		}
		b.WriteByte('\n')
	}
	row(baccarat.Player, stats.PlayerWins, stats.PlayerProb)
	row(baccarat.Banker, stats.BankerWins, stats.BankerProb)
	row(baccarat.Tie, stats.Ties, stats.TieProb)
	if stats.ExampleHand != nil {
		fmt.Fprintf(&b, "%s %s", s.Muted.Render("example:"), s.renderHand(1, *stats.ExampleHand, false))
	}
	return strings.TrimRight(b.String(), "\n")
}
