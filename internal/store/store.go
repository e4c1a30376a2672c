// Package store persists session hand history in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/baccarat/baccarat"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a session has no recorded hands
var ErrNotFound = errors.New("not found")

// Hand is one recorded hand of a session. Seq is its zero-based position
// in the session history.
type Hand struct {
	SessionID string
	Seq       int
	Result    baccarat.GameResult
	Manual    bool
	DealtAt   time.Time
}

// Summary describes a stored session
type Summary struct {
	SessionID string
	Hands     int
	FirstHand time.Time
	LastHand  time.Time
}

// Store persists hand history in SQLite
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordHand inserts one hand, replacing any hand already stored at the
// same sequence number
func (s *Store) RecordHand(ctx context.Context, h Hand) error {
	if h.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if h.DealtAt.IsZero() {
		h.DealtAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO hands (
		   session_id, seq, player_cards, banker_cards, player_score,
		   banker_score, winner, natural, manual, dealt_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.SessionID,
		h.Seq,
		formatCards(h.Result.PlayerCards),
		formatCards(h.Result.BankerCards),
		h.Result.PlayerScore,
		h.Result.BankerScore,
		h.Result.Winner.String(),
		h.Result.IsNatural,
		h.Manual,
		toMillis(h.DealtAt),
	)
	if err != nil {
		return fmt.Errorf("record hand: %w", err)
	}
	return nil
}

// DeleteLast removes the most recent hand of a session
func (s *Store) DeleteLast(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM hands
		  WHERE session_id = ?
		    AND seq = (SELECT MAX(seq) FROM hands WHERE session_id = ?)`,
		sessionID, sessionID)
	if err != nil {
		return fmt.Errorf("delete last hand: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes every hand of a session
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM hands WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Hands returns a session's hands in order
func (s *Store) Hands(ctx context.Context, sessionID string) ([]Hand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, player_cards, banker_cards, player_score, banker_score,
		        winner, natural, manual, dealt_at
		   FROM hands
		  WHERE session_id = ?
		  ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query hands: %w", err)
	}
	defer rows.Close()

	var hands []Hand
	for rows.Next() {
		var (
			h              = Hand{SessionID: sessionID}
			player, banker string
			winner         string
			dealtAt        int64
		)
		if err := rows.Scan(&h.Seq, &player, &banker, &h.Result.PlayerScore, &h.Result.BankerScore,
			&winner, &h.Result.IsNatural, &h.Manual, &dealtAt); err != nil {
			return nil, fmt.Errorf("scan hand: %w", err)
		}
		if h.Result.PlayerCards, err = baccarat.ParseCards(player); err != nil {
			return nil, fmt.Errorf("hand %d: %w", h.Seq, err)
		}
		if h.Result.BankerCards, err = baccarat.ParseCards(banker); err != nil {
			return nil, fmt.Errorf("hand %d: %w", h.Seq, err)
		}
		if h.Result.Winner, err = baccarat.ParseOutcome(winner); err != nil {
			return nil, fmt.Errorf("hand %d: %w", h.Seq, err)
		}
		h.DealtAt = fromMillis(dealtAt)
		hands = append(hands, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hands: %w", err)
	}
	if len(hands) == 0 {
		return nil, ErrNotFound
	}
	return hands, nil
}

// Sessions lists stored sessions, most recently active first
func (s *Store) Sessions(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*), MIN(dealt_at), MAX(dealt_at)
		   FROM hands
		  GROUP BY session_id
		  ORDER BY MAX(dealt_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum         Summary
			first, last int64
		)
		if err := rows.Scan(&sum.SessionID, &sum.Hands, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.FirstHand = fromMillis(first)
		sum.LastHand = fromMillis(last)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func formatCards(cards []baccarat.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
