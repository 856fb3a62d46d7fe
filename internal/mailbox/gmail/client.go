// Package gmail implements mailbox.Provider over the Gmail REST API.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/credential"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

const user = "me"

// Client is a mailbox.Provider backed by the Gmail API.
type Client struct {
	srv    *gmail.Service
	query  string
	logger *zap.Logger
}

// NewClient builds an authenticated Gmail client. The OAuth token is
// supplied by the auth collaborator and read as an opaque credential
// from the keyring (or env); a missing token is an AuthError, not a
// prompt.
func NewClient(ctx context.Context, cfg model.MailboxConfig, logger *zap.Logger) (*Client, error) {
	raw, err := credential.Get(credential.KeyGmailToken)
	if err != nil || raw == "" {
		return nil, &mailbox.AuthError{Message: "no mailbox token available"}
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal([]byte(raw), tok); err != nil {
		// Not a token JSON; treat the credential as a bare bearer token.
		tok = &oauth2.Token{AccessToken: strings.TrimSpace(raw)}
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, &mailbox.AuthError{Message: "mailbox token is empty"}
	}

	ts := oauth2.StaticTokenSource(tok)
	if cfg.CredentialsFile != "" {
		// With a client secret on hand the token can self-refresh.
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading client secret %s: %w", cfg.CredentialsFile, err)
		}
		oauthCfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("parsing client secret: %w", err)
		}
		ts = oauthCfg.TokenSource(ctx, tok)
	}

	srv, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &Client{srv: srv, query: cfg.Query, logger: logger}, nil
}

// ListMessages returns the IDs for the 1-based page window. Gmail
// paginates by opaque token, so earlier windows are walked with
// IDs-only list calls; those are cheap relative to the per-message
// detail fetches that follow.
func (c *Client) ListMessages(ctx context.Context, page, pageSize int) (*mailbox.Page, error) {
	if page < 1 {
		page = 1
	}

	total := 0
	pageToken := ""
	for i := 1; ; i++ {
		call := c.srv.Users.Messages.List(user).
			MaxResults(int64(pageSize)).
			Q(c.query).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, wrapErr("listing messages", err)
		}
		if i == 1 {
			total = int(list.ResultSizeEstimate)
		}

		if i == page {
			ids := make([]string, 0, len(list.Messages))
			for _, m := range list.Messages {
				ids = append(ids, m.Id)
			}
			return &mailbox.Page{IDs: ids, Total: total}, nil
		}

		if list.NextPageToken == "" {
			// Requested window is past the end of the mailbox.
			return &mailbox.Page{IDs: nil, Total: total}, nil
		}
		pageToken = list.NextPageToken
	}
}

// GetMessage fetches the full payload for one message.
func (c *Client) GetMessage(ctx context.Context, externalID string) (*mailbox.RawMessage, error) {
	msg, err := c.srv.Users.Messages.Get(user, externalID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("fetching message %s", externalID), err)
	}
	return toRawMessage(msg), nil
}

// GetThread fetches every message in a conversation in provider order.
func (c *Client) GetThread(ctx context.Context, threadID string) ([]*mailbox.RawMessage, error) {
	thread, err := c.srv.Users.Threads.Get(user, threadID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("fetching thread %s", threadID), err)
	}

	out := make([]*mailbox.RawMessage, 0, len(thread.Messages))
	for _, m := range thread.Messages {
		out = append(out, toRawMessage(m))
	}
	return out, nil
}

// GetAttachment resolves an attachment reference to its bytes.
func (c *Client) GetAttachment(ctx context.Context, externalID, attachmentRef string) ([]byte, error) {
	body, err := c.srv.Users.Messages.Attachments.Get(user, externalID, attachmentRef).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("fetching attachment %s", attachmentRef), err)
	}

	data := body.Data
	if rem := len(data) % 4; rem != 0 {
		data += strings.Repeat("=", 4-rem)
	}
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decoding attachment %s: %w", attachmentRef, err)
	}
	return decoded, nil
}

// toRawMessage maps a Gmail message onto the neutral provider shape.
func toRawMessage(msg *gmail.Message) *mailbox.RawMessage {
	raw := &mailbox.RawMessage{
		ExternalID: msg.Id,
		ThreadID:   msg.ThreadId,
		Snippet:    msg.Snippet,
		IsRead:     true,
	}

	if msg.InternalDate > 0 {
		raw.Timestamp = time.UnixMilli(msg.InternalDate).UTC()
	}

	for _, label := range msg.LabelIds {
		switch label {
		case "UNREAD":
			raw.IsRead = false
		case "STARRED":
			raw.IsStarred = true
		}
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				raw.From = header.Value
			case "Subject":
				raw.Subject = header.Value
			case "Date":
				if raw.Timestamp.IsZero() {
					raw.Timestamp = parseDateHeader(header.Value)
				}
			}
		}
		raw.Payload = toPart(msg.Payload)
	}

	return raw
}

// toPart converts the Gmail part tree into the neutral Part tree.
func toPart(part *gmail.MessagePart) *mailbox.Part {
	if part == nil {
		return nil
	}

	p := &mailbox.Part{
		MimeType: part.MimeType,
		Filename: part.Filename,
	}
	if part.Body != nil {
		p.Data = part.Body.Data
		p.AttachmentRef = part.Body.AttachmentId
		p.Size = part.Body.Size
	}
	for _, child := range part.Parts {
		if mapped := toPart(child); mapped != nil {
			p.Parts = append(p.Parts, mapped)
		}
	}
	return p
}

// dateFormats covers the header variants seen in the wild, most common
// first.
var dateFormats = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
}

func parseDateHeader(value string) time.Time {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// wrapErr converts provider 401/403 responses into AuthError so the
// orchestrator can fail the whole request instead of one message.
func wrapErr(op string, err error) error {
	if apiErr, ok := err.(*googleapi.Error); ok {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return &mailbox.AuthError{Message: fmt.Sprintf("%s: %v", op, err)}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
