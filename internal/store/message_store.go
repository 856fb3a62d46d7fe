package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

// messageRow mirrors the messages table; list-valued fields are stored
// as JSON text.
type messageRow struct {
	ExternalID     string    `db:"external_id"`
	ThreadID       string    `db:"thread_id"`
	FromName       string    `db:"from_name"`
	FromEmail      string    `db:"from_email"`
	Subject        string    `db:"subject"`
	Content        string    `db:"content"`
	Sector         string    `db:"sector"`
	RelevanceScore int       `db:"relevance_score"`
	Timestamp      time.Time `db:"timestamp"`
	Attachments    string    `db:"attachments"`
	Links          string    `db:"links"`
	Replies        string    `db:"replies"`
	IsRead         bool      `db:"is_read"`
	IsStarred      bool      `db:"is_starred"`
	CreatedAt      time.Time `db:"created_at"`
}

// GetMessage returns the cached message for externalID. A row missing
// its thread ID predates thread support and reports ErrNotFound so the
// caller rebuilds it. A row whose JSON fields no longer decode is
// deleted and reported as ErrNotFound rather than surfacing a corrupt
// read.
func (s *SQLiteStore) GetMessage(ctx context.Context, externalID string) (*model.Message, error) {
	var row messageRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM messages WHERE external_id = ?", externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading message %s: %w", externalID, err)
	}

	if row.ThreadID == "" {
		s.logger.Debug("cached message is schema-stale, forcing rebuild",
			zap.String("external_id", externalID))
		return nil, ErrNotFound
	}

	msg, err := row.toMessage()
	if err != nil {
		s.logger.Warn("cached message is corrupt, deleting it",
			zap.String("external_id", externalID),
			zap.Error(err))
		if delErr := s.DeleteMessage(ctx, externalID); delErr != nil {
			s.logger.Error("failed to delete corrupt message",
				zap.String("external_id", externalID),
				zap.Error(delErr))
		}
		return nil, ErrNotFound
	}
	return msg, nil
}

func (r messageRow) toMessage() (*model.Message, error) {
	msg := &model.Message{
		ExternalID:     r.ExternalID,
		ThreadID:       r.ThreadID,
		From:           r.FromName,
		FromEmail:      r.FromEmail,
		Subject:        r.Subject,
		Content:        r.Content,
		Sector:         r.Sector,
		RelevanceScore: r.RelevanceScore,
		Timestamp:      r.Timestamp,
		IsRead:         r.IsRead,
		IsStarred:      r.IsStarred,
		CreatedAt:      r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Attachments), &msg.Attachments); err != nil {
		return nil, fmt.Errorf("decoding attachments: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Links), &msg.Links); err != nil {
		return nil, fmt.Errorf("decoding links: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Replies), &msg.Replies); err != nil {
		return nil, fmt.Errorf("decoding replies: %w", err)
	}
	return msg, nil
}

// UpsertMessage inserts or replaces the cached copy keyed by external
// ID. Last write wins; the scorer and classifier are deterministic, so
// concurrent writers on the same key converge.
func (s *SQLiteStore) UpsertMessage(ctx context.Context, msg *model.Message) error {
	attachments, err := json.Marshal(orEmptyAttachments(msg.Attachments))
	if err != nil {
		return fmt.Errorf("encoding attachments: %w", err)
	}
	links, err := json.Marshal(orEmptyStrings(msg.Links))
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}
	replies, err := json.Marshal(orEmptyReplies(msg.Replies))
	if err != nil {
		return fmt.Errorf("encoding replies: %w", err)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (
			external_id, thread_id, from_name, from_email, subject,
			content, sector, relevance_score, timestamp,
			attachments, links, replies, is_read, is_starred, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			thread_id       = excluded.thread_id,
			from_name       = excluded.from_name,
			from_email      = excluded.from_email,
			subject         = excluded.subject,
			content         = excluded.content,
			sector          = excluded.sector,
			relevance_score = excluded.relevance_score,
			timestamp       = excluded.timestamp,
			attachments     = excluded.attachments,
			links           = excluded.links,
			replies         = excluded.replies,
			is_read         = excluded.is_read,
			is_starred      = excluded.is_starred`,
		msg.ExternalID, msg.ThreadID, msg.From, msg.FromEmail, msg.Subject,
		msg.Content, msg.Sector, msg.RelevanceScore, msg.Timestamp.UTC(),
		string(attachments), string(links), string(replies),
		msg.IsRead, msg.IsStarred, createdAt,
	)
	if err != nil {
		return fmt.Errorf("upserting message %s: %w", msg.ExternalID, err)
	}
	return nil
}

// BatchUpsert writes each message independently and returns how many
// succeeded. Failures are logged and skipped; each task owns one key,
// so order does not matter.
func (s *SQLiteStore) BatchUpsert(ctx context.Context, msgs []*model.Message) int {
	written := 0
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if err := s.UpsertMessage(ctx, msg); err != nil {
			s.logger.Error("cache write-back failed",
				zap.String("external_id", msg.ExternalID),
				zap.Error(err))
			continue
		}
		written++
	}
	return written
}

// DeleteMessage removes a cached message by external ID. Deleting an
// absent row is not an error.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, externalID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE external_id = ?", externalID)
	if err != nil {
		return fmt.Errorf("deleting message %s: %w", externalID, err)
	}
	return nil
}

// SetRead updates the cached read flag.
func (s *SQLiteStore) SetRead(ctx context.Context, externalID string, read bool) error {
	return s.setFlag(ctx, externalID, "is_read", read)
}

// SetStarred updates the cached starred flag.
func (s *SQLiteStore) SetStarred(ctx context.Context, externalID string, starred bool) error {
	return s.setFlag(ctx, externalID, "is_starred", starred)
}

func (s *SQLiteStore) setFlag(ctx context.Context, externalID, column string, value bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE messages SET "+column+" = ? WHERE external_id = ?",
		value, externalID)
	if err != nil {
		return fmt.Errorf("updating %s for %s: %w", column, externalID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func orEmptyAttachments(in []model.Attachment) []model.Attachment {
	if in == nil {
		return []model.Attachment{}
	}
	return in
}

func orEmptyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func orEmptyReplies(in []model.ReplySummary) []model.ReplySummary {
	if in == nil {
		return []model.ReplySummary{}
	}
	return in
}
