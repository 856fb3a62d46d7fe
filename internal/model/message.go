package model

import "time"

// Status values derived from decision records and read state.
const (
	StatusNew             = "New"
	StatusPending         = "Pending"
	StatusUnderEvaluation = "Under Evaluation"
	StatusRejected        = "Rejected"
)

// MaxContentLength caps the sanitized body stored for a message.
const MaxContentLength = 50_000

// Attachment describes a single file attached to a message. DownloadRef
// is the provider's opaque attachment identifier, resolved lazily when
// the caller actually downloads the file.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
	DownloadRef string `json:"download_ref"`
}

// ReplySummary is a lightweight view of one reply inside a thread,
// ordered newest first on a Message.
type ReplySummary struct {
	ExternalID string    `json:"external_id"`
	From       string    `json:"from"`
	FromEmail  string    `json:"from_email"`
	Snippet    string    `json:"snippet"`
	Timestamp  time.Time `json:"timestamp"`
}

// Message is the cached, enriched unit served by the feed.
type Message struct {
	// ExternalID is the source mailbox message identifier and the
	// primary cache key. Unique within a mailbox scope.
	ExternalID string `json:"external_id"`

	// ThreadID is the provider conversation identifier. A cached row
	// without it predates thread support and must be rebuilt, never
	// served as-is.
	ThreadID string `json:"thread_id"`

	From      string `json:"from"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`

	// Content is the sanitized body, capped at MaxContentLength.
	Content string `json:"content"`

	// Sector is the taxonomy label assigned by the classifier.
	Sector string `json:"sector"`

	// Status is derived from (accepted, rejected, isRead); it is never
	// stored, only computed at read time.
	Status string `json:"status"`

	// RelevanceScore is the thesis match score in [0,100].
	RelevanceScore int `json:"relevance_score"`

	// Timestamp is the effective time: the original message time, or
	// the newest reply's time when replies exist.
	Timestamp time.Time `json:"timestamp"`

	Attachments []Attachment   `json:"attachments"`
	Links       []string       `json:"links"`
	Replies     []ReplySummary `json:"replies"`

	IsRead    bool      `json:"is_read"`
	IsStarred bool      `json:"is_starred"`
	CreatedAt time.Time `json:"created_at"`
}

// DeriveStatus computes the display status from decision flags and read
// state. Rejection wins over acceptance; a read message with no
// decision is Pending.
func DeriveStatus(accepted, rejected, isRead bool) string {
	switch {
	case rejected:
		return StatusRejected
	case accepted:
		return StatusUnderEvaluation
	case isRead:
		return StatusPending
	default:
		return StatusNew
	}
}
