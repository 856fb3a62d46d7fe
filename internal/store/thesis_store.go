package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

type thesisRow struct {
	UserScope    string    `db:"user_scope"`
	Sectors      string    `db:"sectors"`
	Keywords     string    `db:"keywords"`
	Excluded     string    `db:"excluded_keywords"`
	Geographies  string    `db:"geographies"`
	Stages       string    `db:"stages"`
	CheckSizeMin int64     `db:"check_size_min"`
	CheckSizeMax int64     `db:"check_size_max"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// GetThesis returns the stored thesis for userScope. A user without
// one gets an empty thesis: new users are a valid state, and scoring
// an empty thesis yields 0.
func (s *SQLiteStore) GetThesis(ctx context.Context, userScope string) (model.Thesis, error) {
	var row thesisRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM theses WHERE user_scope = ?", userScope)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Thesis{UserScope: userScope}, nil
	}
	if err != nil {
		return model.Thesis{}, fmt.Errorf("reading thesis for %s: %w", userScope, err)
	}

	t := model.Thesis{
		UserScope:    row.UserScope,
		CheckSizeMin: row.CheckSizeMin,
		CheckSizeMax: row.CheckSizeMax,
		UpdatedAt:    row.UpdatedAt,
	}
	for _, field := range []struct {
		raw  string
		dest *[]string
	}{
		{row.Sectors, &t.Sectors},
		{row.Keywords, &t.Keywords},
		{row.Excluded, &t.ExcludedKeywords},
		{row.Geographies, &t.Geographies},
		{row.Stages, &t.Stages},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dest); err != nil {
			return model.Thesis{}, fmt.Errorf("decoding thesis for %s: %w", userScope, err)
		}
	}
	return t, nil
}

// PutThesis inserts or replaces the thesis for its user scope.
func (s *SQLiteStore) PutThesis(ctx context.Context, t model.Thesis) error {
	encode := func(in []string) string {
		if in == nil {
			in = []string{}
		}
		data, _ := json.Marshal(in)
		return string(data)
	}

	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO theses (
			user_scope, sectors, keywords, excluded_keywords, geographies,
			stages, check_size_min, check_size_max, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_scope) DO UPDATE SET
			sectors        = excluded.sectors,
			keywords       = excluded.keywords,
			excluded_keywords = excluded.excluded_keywords,
			geographies    = excluded.geographies,
			stages         = excluded.stages,
			check_size_min = excluded.check_size_min,
			check_size_max = excluded.check_size_max,
			updated_at     = excluded.updated_at`,
		t.UserScope, encode(t.Sectors), encode(t.Keywords),
		encode(t.ExcludedKeywords), encode(t.Geographies), encode(t.Stages),
		t.CheckSizeMin, t.CheckSizeMax, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting thesis for %s: %w", t.UserScope, err)
	}
	return nil
}
