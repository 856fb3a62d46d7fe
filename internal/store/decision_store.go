package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

// UpsertDecision records an accept/reject call. A later decision on
// the same message replaces the earlier one. Generates a UUID if ID is
// empty.
func (s *SQLiteStore) UpsertDecision(ctx context.Context, d model.Decision) error {
	if d.Decision != model.DecisionAccepted && d.Decision != model.DecisionRejected {
		return fmt.Errorf("invalid decision %q", d.Decision)
	}
	if strings.TrimSpace(d.ExternalID) == "" {
		return fmt.Errorf("decision external_id must not be empty")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, user_scope, external_id, decision, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_scope, external_id) DO UPDATE SET
			decision   = excluded.decision,
			created_at = excluded.created_at`,
		d.ID, d.UserScope, d.ExternalID, d.Decision, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting decision for %s: %w", d.ExternalID, err)
	}
	return nil
}

// FindByExternalIDs bulk-looks up decisions for one page window of
// message IDs.
func (s *SQLiteStore) FindByExternalIDs(
	ctx context.Context,
	userScope string,
	externalIDs []string,
) ([]model.Decision, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, user_scope, external_id, decision, created_at FROM decisions WHERE user_scope = ? AND external_id IN (?)",
		userScope, externalIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("building decision query: %w", err)
	}

	var rows []struct {
		ID         string    `db:"id"`
		UserScope  string    `db:"user_scope"`
		ExternalID string    `db:"external_id"`
		Decision   string    `db:"decision"`
		CreatedAt  time.Time `db:"created_at"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}

	out := make([]model.Decision, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Decision{
			ID:         r.ID,
			UserScope:  r.UserScope,
			ExternalID: r.ExternalID,
			Decision:   r.Decision,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}
