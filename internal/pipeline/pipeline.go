// Package pipeline orchestrates the inbox feed: it lists a page of
// mailbox messages, fans out per-message fetch/transform work, merges
// decision state, writes the cache back, and shapes the response.
package pipeline

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/classify"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/extract"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/score"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/store"
)

// Deps wires the pipeline's collaborators.
type Deps struct {
	Provider   mailbox.Provider
	Store      store.Store
	Classifier *classify.Classifier
	Logger     *zap.Logger

	// MaxConcurrent caps in-flight per-message tasks; RatePerSec caps
	// provider calls per second across the whole pipeline. The two are
	// deliberately independent knobs.
	MaxConcurrent int
	RatePerSec    float64
}

// Pipeline drives page requests through the fetch/transform/cache
// cycle.
type Pipeline struct {
	provider      mailbox.Provider
	store         store.Store
	classifier    *classify.Classifier
	extractor     *extract.Extractor
	limiter       *rate.Limiter
	logger        *zap.Logger
	maxConcurrent int
}

// New creates a Pipeline from its dependencies.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxConcurrent := deps.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	perSec := deps.RatePerSec
	if perSec <= 0 {
		perSec = 20
	}
	return &Pipeline{
		provider:      deps.Provider,
		store:         deps.Store,
		classifier:    deps.Classifier,
		extractor:     extract.New(logger),
		limiter:       rate.NewLimiter(rate.Limit(perSec), maxConcurrent),
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// ListRequest is one inbound page query.
type ListRequest struct {
	UserScope string
	Page      int
	Limit     int
}

// ListResult is the shaped feed page.
type ListResult struct {
	Items []*model.Message `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ListInbox serves one page of the feed. Authentication failure from
// the provider is the only fatal error; individual message failures
// degrade to omitted entries.
func (p *Pipeline) ListInbox(ctx context.Context, req ListRequest) (*ListResult, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}

	window, err := p.provider.ListMessages(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	decisions := p.lookupDecisions(ctx, req.UserScope, window.IDs)
	thesis := p.lookupThesis(ctx, req.UserScope)

	results := make([]taskResult, len(window.IDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i, id := range window.IDs {
		g.Go(func() error {
			msg, err := p.buildMessage(gctx, id, thesis)
			results[i] = taskResult{externalID: id, msg: msg, err: err}
			// Settle, never fail the group: one bad message must not
			// abort the page.
			return nil
		})
	}
	_ = g.Wait()

	items, failed := partition(results)
	for _, f := range failed {
		p.logger.Warn("message omitted from page",
			zap.String("external_id", f.externalID),
			zap.Error(f.err))
	}

	if written := p.store.BatchUpsert(ctx, items); written < len(items) {
		p.logger.Warn("partial cache write-back",
			zap.Int("written", written),
			zap.Int("built", len(items)))
	}

	for _, msg := range items {
		d := decisions[msg.ExternalID]
		msg.Status = model.DeriveStatus(
			d == model.DecisionAccepted,
			d == model.DecisionRejected,
			msg.IsRead,
		)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	return &ListResult{
		Items: items,
		Total: window.Total,
		Page:  req.Page,
		Limit: req.Limit,
	}, nil
}

// GetMessage serves a single message by external ID, building it if it
// is not validly cached, and merges the caller's decision state.
func (p *Pipeline) GetMessage(ctx context.Context, userScope, externalID string) (*model.Message, error) {
	thesis := p.lookupThesis(ctx, userScope)

	msg, err := p.buildMessage(ctx, externalID, thesis)
	if err != nil {
		return nil, err
	}

	if err := p.store.UpsertMessage(ctx, msg); err != nil {
		p.logger.Error("cache write-back failed",
			zap.String("external_id", externalID),
			zap.Error(err))
	}

	decisions := p.lookupDecisions(ctx, userScope, []string{externalID})
	d := decisions[externalID]
	msg.Status = model.DeriveStatus(
		d == model.DecisionAccepted,
		d == model.DecisionRejected,
		msg.IsRead,
	)
	return msg, nil
}

// buildMessage returns the enriched message for externalID, reading
// through the cache. A valid cached copy only has its mutable fields
// refreshed; an absent, schema-stale, or corrupt copy is rebuilt from
// the provider.
func (p *Pipeline) buildMessage(ctx context.Context, externalID string, thesis model.Thesis) (*model.Message, error) {
	cached, err := p.store.GetMessage(ctx, externalID)
	if err == nil {
		p.refresh(ctx, cached, thesis)
		return cached, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := p.provider.GetMessage(ctx, externalID)
	if err != nil {
		return nil, err
	}

	body := p.extractor.Body(raw.Payload)
	content := extract.Truncate(body, model.MaxContentLength)
	fromName, fromEmail := splitAddress(raw.From)

	msg := &model.Message{
		ExternalID:  raw.ExternalID,
		ThreadID:    raw.ThreadID,
		From:        fromName,
		FromEmail:   fromEmail,
		Subject:     raw.Subject,
		Content:     content,
		Sector:      p.classifier.Classify(raw.From, raw.Subject, content),
		Timestamp:   raw.Timestamp,
		Attachments: p.extractor.Attachments(raw.ExternalID, raw.Payload),
		Links:       extract.Links(content),
		IsRead:      raw.IsRead,
		IsStarred:   raw.IsStarred,
		CreatedAt:   time.Now().UTC(),
	}
	msg.RelevanceScore = score.Score(score.FromMessage(msg), thesis)

	p.attachReplies(ctx, msg)
	return msg, nil
}

// refresh recomputes the mutable fields of a cached message: score
// (the thesis may have changed), links, replies, and the effective
// timestamp. Immutable content is left as cached.
func (p *Pipeline) refresh(ctx context.Context, msg *model.Message, thesis model.Thesis) {
	msg.RelevanceScore = score.Score(score.FromMessage(msg), thesis)
	msg.Links = extract.Links(msg.Content)
	p.attachReplies(ctx, msg)
}

// attachReplies resolves the message's thread and promotes the
// effective timestamp to the newest reply's time, so active
// conversations bubble to the top of the feed. Thread fetch failures
// degrade to no replies.
func (p *Pipeline) attachReplies(ctx context.Context, msg *model.Message) {
	if msg.ThreadID == "" {
		return
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return
	}
	thread, err := p.provider.GetThread(ctx, msg.ThreadID)
	if err != nil {
		p.logger.Warn("thread fetch failed, keeping message without replies",
			zap.String("external_id", msg.ExternalID),
			zap.String("thread_id", msg.ThreadID),
			zap.Error(err))
		return
	}

	replies := make([]model.ReplySummary, 0, len(thread))
	for _, m := range thread {
		if m.ExternalID == msg.ExternalID {
			continue
		}
		name, email := splitAddress(m.From)
		replies = append(replies, model.ReplySummary{
			ExternalID: m.ExternalID,
			From:       name,
			FromEmail:  email,
			Snippet:    m.Snippet,
			Timestamp:  m.Timestamp,
		})
	}
	sort.SliceStable(replies, func(i, j int) bool {
		return replies[i].Timestamp.After(replies[j].Timestamp)
	})

	msg.Replies = replies
	if len(replies) > 0 && replies[0].Timestamp.After(msg.Timestamp) {
		msg.Timestamp = replies[0].Timestamp
	}
}

// lookupDecisions bulk-loads the accept/reject records for one window.
// Store failures degrade to no decisions; stale status beats a failed
// page.
func (p *Pipeline) lookupDecisions(ctx context.Context, userScope string, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out
	}

	decisions, err := p.store.FindByExternalIDs(ctx, userScope, ids)
	if err != nil {
		p.logger.Error("decision lookup failed",
			zap.String("user_scope", userScope),
			zap.Error(err))
		return out
	}
	for _, d := range decisions {
		out[d.ExternalID] = d.Decision
	}
	return out
}

// lookupThesis loads the caller's thesis; failures degrade to an empty
// thesis, which scores every message 0.
func (p *Pipeline) lookupThesis(ctx context.Context, userScope string) model.Thesis {
	thesis, err := p.store.GetThesis(ctx, userScope)
	if err != nil {
		p.logger.Error("thesis lookup failed",
			zap.String("user_scope", userScope),
			zap.Error(err))
		return model.Thesis{UserScope: userScope}
	}
	return thesis
}

// splitAddress breaks an RFC 5322 From header into display name and
// address. Unparseable input keeps the raw value in both fields.
func splitAddress(from string) (name, email string) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		trimmed := strings.TrimSpace(from)
		return trimmed, trimmed
	}
	if addr.Name == "" {
		return addr.Address, addr.Address
	}
	return addr.Name, addr.Address
}
