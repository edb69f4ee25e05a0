package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fuelplanner/internal/nutrition"
)

// ChatSession is the plan a chat is currently editing.
type ChatSession struct {
	ChatID      int64
	UserID      string
	RacePlanID  string
	ContextData ChatContext
	UpdatedAt   time.Time
}

// ChatContext holds the race inputs stored in the context_data JSON field.
type ChatContext struct {
	Race    nutrition.RaceContext    `json:"race"`
	Athlete nutrition.AthleteContext `json:"athlete"`
	Weather nutrition.WeatherContext `json:"weather"`
}

// SessionRepository persists the chat to plan binding.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save binds a chat to a plan, replacing any previous binding.
func (sr *SessionRepository) Save(ctx context.Context, cs ChatSession) error {
	jsonData, err := json.Marshal(cs.ContextData)
	if err != nil {
		return fmt.Errorf("failed to marshal chat context: %w", err)
	}

	_, err = sr.db.ExecContext(ctx, `
INSERT INTO chat_sessions(chat_id, user_id, race_plan_id, context_data, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(chat_id) DO UPDATE SET
  user_id=excluded.user_id,
  race_plan_id=excluded.race_plan_id,
  context_data=excluded.context_data,
  updated_at=excluded.updated_at`,
		cs.ChatID, cs.UserID, cs.RacePlanID, string(jsonData), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// Get returns the chat's binding, or nil if it has none.
func (sr *SessionRepository) Get(ctx context.Context, chatID int64) (*ChatSession, error) {
	var (
		cs  ChatSession
		raw string
	)
	err := sr.db.QueryRowContext(ctx, `
SELECT chat_id, user_id, race_plan_id, context_data, updated_at
FROM chat_sessions WHERE chat_id = ?`, chatID).
		Scan(&cs.ChatID, &cs.UserID, &cs.RacePlanID, &raw, &cs.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &cs.ContextData); err != nil {
		return nil, fmt.Errorf("failed to decode chat context: %w", err)
	}
	return &cs, nil
}

// Delete removes a chat's binding.
func (sr *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	if _, err := sr.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

// CleanupStale removes bindings not touched since before.
func (sr *SessionRepository) CleanupStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up chat sessions: %w", err)
	}
	return res.RowsAffected()
}
