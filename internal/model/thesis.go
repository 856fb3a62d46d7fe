package model

import "time"

// DefaultSector is assigned when no taxonomy keyword matches.
const DefaultSector = "General"

// Thesis is an investor's declared interest profile, used to score
// incoming messages. It is read-only to the pipeline; lifecycle is
// owned by the profile collaborator.
type Thesis struct {
	UserScope        string   `json:"user_scope"`
	Sectors          []string `json:"sectors"`
	Keywords         []string `json:"keywords"`
	ExcludedKeywords []string `json:"excluded_keywords"`
	Geographies      []string `json:"geographies"`

	// Stages and check size are served with the thesis but do not
	// participate in relevance scoring.
	Stages       []string `json:"stages"`
	CheckSizeMin int64    `json:"check_size_min"`
	CheckSizeMax int64    `json:"check_size_max"`

	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether the thesis carries no scoring criteria at
// all. Scoring an empty thesis yields 0.
func (t Thesis) IsEmpty() bool {
	return len(t.Sectors) == 0 &&
		len(t.Keywords) == 0 &&
		len(t.ExcludedKeywords) == 0 &&
		len(t.Geographies) == 0
}

// Decision values for accept/reject records.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// Decision records a user's accept/reject call on a single message.
type Decision struct {
	ID         string    `json:"id"`
	UserScope  string    `json:"user_scope"`
	ExternalID string    `json:"external_id"`
	Decision   string    `json:"decision"`
	CreatedAt  time.Time `json:"created_at"`
}
