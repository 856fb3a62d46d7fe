// Package mailbox defines the contract between the pipeline and the
// external mail provider, plus the neutral MIME part tree the content
// extractor walks.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuthError indicates that the mailbox credential is missing, invalid,
// or expired. It is the only provider failure that aborts a whole page
// request.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mailbox auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Part is one node of a message's MIME tree. Either Data carries the
// node's transport-encoded inline body, or Parts carries children, or
// both are empty for structural nodes. All fields are optional; the
// extractor handles absence explicitly.
type Part struct {
	MimeType string

	// Data is the base64url-encoded body payload, possibly with
	// padding lost in transport.
	Data string

	// Filename and AttachmentRef are set on attachment nodes.
	// AttachmentRef is an opaque handle for GetAttachment.
	Filename      string
	AttachmentRef string
	Size          int64

	Parts []*Part
}

// RawMessage is a provider message before extraction and scoring.
type RawMessage struct {
	ExternalID string
	ThreadID   string
	From       string
	Subject    string
	Snippet    string
	Timestamp  time.Time
	IsRead     bool
	IsStarred  bool
	Payload    *Part
}

// Page identifies one window of mailbox message IDs.
type Page struct {
	IDs   []string
	Total int
}

// Provider is the external mail API consumed by the pipeline.
type Provider interface {
	// ListMessages returns the IDs for the 1-based page window and the
	// provider's estimate of the total match count.
	ListMessages(ctx context.Context, page, pageSize int) (*Page, error)

	// GetMessage fetches the full payload for one message.
	GetMessage(ctx context.Context, externalID string) (*RawMessage, error)

	// GetThread fetches every message in a conversation, including the
	// root, in provider order.
	GetThread(ctx context.Context, threadID string) ([]*RawMessage, error)

	// GetAttachment resolves an attachment reference to its bytes.
	GetAttachment(ctx context.Context, externalID, attachmentRef string) ([]byte, error)
}
