// ============================================================================
// Journey History
// ============================================================================
// Persists finished searches so riders can revisit earlier plans.
// ============================================================================

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/tnjourney/internal/models"
)

// Entry is one stored search with its planned itineraries.
type Entry struct {
	ID          int64
	RequestID   string
	Source      string
	Destination string
	TravelDate  time.Time
	Mode        string
	Itineraries []models.Itinerary
	CreatedAt   time.Time
}

// Store reads and writes journey history rows.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves one finished search. Implements the planner's Recorder.
func (s *Store) Record(ctx context.Context, requestID, source, dest string, date time.Time, mode string, itineraries []models.Itinerary) error {
	payload, err := json.Marshal(itineraries)
	if err != nil {
		return fmt.Errorf("history: encode results: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journey_history (request_id, source, destination, travel_date, mode, results)
		VALUES (?, ?, ?, ?, ?, ?)`,
		requestID, source, dest, date.Format("2006-01-02"), mode, payload)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. Itineraries are left
// unloaded; use Get for the full record.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, source, destination, travel_date, mode, created_at
		FROM journey_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Source, &e.Destination, &e.TravelDate, &e.Mode, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get loads one entry with its stored itineraries.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	var (
		e       Entry
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, request_id, source, destination, travel_date, mode, results, created_at
		FROM journey_history
		WHERE id = ?`, id).
		Scan(&e.ID, &e.RequestID, &e.Source, &e.Destination, &e.TravelDate, &e.Mode, &payload, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("history: get: %w", err)
	}
	if err := json.Unmarshal(payload, &e.Itineraries); err != nil {
		return nil, fmt.Errorf("history: decode results: %w", err)
	}
	return &e, nil
}
