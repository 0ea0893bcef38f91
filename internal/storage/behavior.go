package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/temcen/stayrank/pkg/models"
)

// BehaviorStore persists one JSONB document per user.
type BehaviorStore struct {
	db DBTX
}

func NewBehaviorStore(db DBTX) *BehaviorStore {
	return &BehaviorStore{db: db}
}

// Get returns the user's behavior record, or nil without error when the user
// has none yet.
func (s *BehaviorStore) Get(ctx context.Context, userID uuid.UUID) (*models.UserBehavior, error) {
	behavior, err := s.load(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return behavior, err
}

func (s *BehaviorStore) load(ctx context.Context, userID uuid.UUID) (*models.UserBehavior, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM user_behaviors WHERE user_id = $1`, userID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load behavior for user %s: %w", userID, err)
	}

	var behavior models.UserBehavior
	if err := json.Unmarshal(doc, &behavior); err != nil {
		return nil, fmt.Errorf("failed to decode behavior for user %s: %w", userID, err)
	}
	behavior.UserID = userID
	return &behavior, nil
}

// Save upserts the whole document. Concurrent saves for one user are last
// write wins.
func (s *BehaviorStore) Save(ctx context.Context, behavior *models.UserBehavior) error {
	doc, err := json.Marshal(behavior)
	if err != nil {
		return fmt.Errorf("failed to encode behavior: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_behaviors (user_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		behavior.UserID, doc, behavior.CreatedAt, behavior.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save behavior for user %s: %w", behavior.UserID, err)
	}
	return nil
}
