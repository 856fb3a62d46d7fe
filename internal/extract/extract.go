// Package extract recovers readable text and attachment metadata from
// a message's MIME part tree.
package extract

import (
	"strings"

	"github.com/jaytaylor/html2text"
	"go.uber.org/zap"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

// Extractor walks part trees. It never fails: malformed or empty trees
// yield empty results.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor. logger may be nil in tests.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Body returns the best available textual body for the tree: the
// node's own inline data if present, else an HTML child rendered to
// text, else a plain-text child, else the first non-empty body found
// by recursing into children in order.
func (e *Extractor) Body(part *mailbox.Part) string {
	if part == nil {
		return ""
	}

	if part.Data != "" {
		return e.render(part.MimeType, DecodeBody(part.Data, e.logger))
	}

	var html, plain *mailbox.Part
	for _, child := range part.Parts {
		switch {
		case html == nil && strings.EqualFold(child.MimeType, "text/html") && child.Data != "":
			html = child
		case plain == nil && strings.EqualFold(child.MimeType, "text/plain") && child.Data != "":
			plain = child
		}
	}
	if html != nil {
		if body := e.render(html.MimeType, DecodeBody(html.Data, e.logger)); body != "" {
			return body
		}
	}
	if plain != nil {
		if body := Clean(DecodeBody(plain.Data, e.logger)); body != "" {
			return body
		}
	}

	for _, child := range part.Parts {
		if body := e.Body(child); body != "" {
			return body
		}
	}
	return ""
}

// render cleans decoded text, converting HTML to readable plain text
// first where the part declares it.
func (e *Extractor) render(mimeType, decoded string) string {
	if decoded == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(mimeType), "text/html") {
		text, err := html2text.FromString(decoded, html2text.Options{TextOnly: true})
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("html rendering failed, using raw body", zap.Error(err))
			}
			return Clean(decoded)
		}
		return Clean(text)
	}
	return Clean(decoded)
}

// Attachments flattens every node carrying a filename and attachment
// reference, at any depth, in tree order.
func (e *Extractor) Attachments(externalID string, part *mailbox.Part) []model.Attachment {
	var out []model.Attachment
	collectAttachments(externalID, part, &out)
	return out
}

func collectAttachments(externalID string, part *mailbox.Part, out *[]model.Attachment) {
	if part == nil {
		return
	}
	if part.Filename != "" && part.AttachmentRef != "" {
		*out = append(*out, model.Attachment{
			ID:          externalID + ":" + part.AttachmentRef,
			Filename:    part.Filename,
			MimeType:    part.MimeType,
			Size:        part.Size,
			DownloadRef: part.AttachmentRef,
		})
	}
	for _, child := range part.Parts {
		collectAttachments(externalID, child, out)
	}
}
