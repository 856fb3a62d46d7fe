package store

import (
	"context"
	"errors"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

// ErrNotFound is returned when a requested record does not exist. A
// schema-stale or corrupt cached message also reports ErrNotFound so
// callers rebuild instead of serving bad data.
var ErrNotFound = errors.New("store: not found")

// MessageCache is the idempotent per-message cache keyed by external
// ID.
type MessageCache interface {
	GetMessage(ctx context.Context, externalID string) (*model.Message, error)
	UpsertMessage(ctx context.Context, msg *model.Message) error

	// BatchUpsert writes each message independently; one record's
	// failure must not block the others. Returns the count written.
	BatchUpsert(ctx context.Context, msgs []*model.Message) int

	DeleteMessage(ctx context.Context, externalID string) error
	SetRead(ctx context.Context, externalID string, read bool) error
	SetStarred(ctx context.Context, externalID string, starred bool) error
}

// DecisionStore persists accept/reject records.
type DecisionStore interface {
	UpsertDecision(ctx context.Context, d model.Decision) error

	// FindByExternalIDs bulk-looks up decisions for one page window.
	FindByExternalIDs(ctx context.Context, userScope string, externalIDs []string) ([]model.Decision, error)
}

// ThesisStore persists one thesis per user scope.
type ThesisStore interface {
	// GetThesis returns the stored thesis, or an empty one when the
	// user has none yet; absence of a thesis is a valid state.
	GetThesis(ctx context.Context, userScope string) (model.Thesis, error)
	PutThesis(ctx context.Context, t model.Thesis) error
}

// Store is the combined persistence surface backed by SQLite.
type Store interface {
	MessageCache
	DecisionStore
	ThesisStore
}
