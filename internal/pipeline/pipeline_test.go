package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/classify"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
	"github.com/AshwiniGoutam/pitchub-sub000/tests/testutil"
)

// fakeProvider serves canned messages and counts calls so tests can
// assert on cache behavior. failIDs makes individual fetches fail.
type fakeProvider struct {
	mu       sync.Mutex
	messages map[string]*mailbox.RawMessage
	threads  map[string][]*mailbox.RawMessage
	order    []string

	failIDs  map[string]error
	listErr  error
	getCalls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		messages: make(map[string]*mailbox.RawMessage),
		threads:  make(map[string][]*mailbox.RawMessage),
		failIDs:  make(map[string]error),
		getCalls: make(map[string]int),
	}
}

func (f *fakeProvider) add(msg *mailbox.RawMessage) {
	f.messages[msg.ExternalID] = msg
	f.order = append(f.order, msg.ExternalID)
}

func (f *fakeProvider) ListMessages(_ context.Context, page, pageSize int) (*mailbox.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := (page - 1) * pageSize
	if start > len(f.order) {
		start = len(f.order)
	}
	end := start + pageSize
	if end > len(f.order) {
		end = len(f.order)
	}
	return &mailbox.Page{IDs: append([]string(nil), f.order[start:end]...), Total: len(f.order)}, nil
}

func (f *fakeProvider) GetMessage(_ context.Context, externalID string) (*mailbox.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls[externalID]++
	if err, ok := f.failIDs[externalID]; ok {
		return nil, err
	}
	msg, ok := f.messages[externalID]
	if !ok {
		return nil, fmt.Errorf("no such message %s", externalID)
	}
	return msg, nil
}

func (f *fakeProvider) GetThread(_ context.Context, threadID string) ([]*mailbox.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threads[threadID], nil
}

func (f *fakeProvider) GetAttachment(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) calls(externalID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls[externalID]
}

func plainPayload(text string) *mailbox.Part {
	return &mailbox.Part{
		MimeType: "text/plain",
		Data:     base64.RawURLEncoding.EncodeToString([]byte(text)),
	}
}

func rawMessage(id string, ts time.Time) *mailbox.RawMessage {
	return &mailbox.RawMessage{
		ExternalID: id,
		ThreadID:   "thread-" + id,
		From:       "Asha Rao <asha@lendfast.io>",
		Subject:    "Lending platform pitch " + id,
		Timestamp:  ts,
		Payload:    plainPayload("We build lending infrastructure for SMBs in India."),
	}
}

func newTestPipeline(t *testing.T, provider mailbox.Provider) *Pipeline {
	t.Helper()
	return New(Deps{
		Provider:   provider,
		Store:      testutil.NewTestStore(t),
		Classifier: classify.New(classify.DefaultTaxonomy()),
		RatePerSec: 10_000,
	})
}

func TestListInboxPaginates(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		provider.add(rawMessage(fmt.Sprintf("m-%02d", i), base.Add(time.Duration(i)*time.Hour)))
	}
	p := newTestPipeline(t, provider)

	res, err := p.ListInbox(context.Background(), ListRequest{UserScope: "default", Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("expected 10 items on page 2, got %d", len(res.Items))
	}
	if res.Total != 25 || res.Page != 2 || res.Limit != 10 {
		t.Fatalf("bad page shape: total=%d page=%d limit=%d", res.Total, res.Page, res.Limit)
	}
}

func TestListInboxSortsNewestFirst(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	provider.add(rawMessage("old", base))
	provider.add(rawMessage("newest", base.Add(48*time.Hour)))
	provider.add(rawMessage("middle", base.Add(24*time.Hour)))
	p := newTestPipeline(t, provider)

	res, err := p.ListInbox(context.Background(), ListRequest{UserScope: "default", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].Timestamp.After(res.Items[i-1].Timestamp) {
			t.Fatalf("items not sorted newest first: %v before %v",
				res.Items[i-1].Timestamp, res.Items[i].Timestamp)
		}
	}
	if res.Items[0].ExternalID != "newest" {
		t.Fatalf("expected newest first, got %s", res.Items[0].ExternalID)
	}
}

func TestListInboxToleratesPartialFailure(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		provider.add(rawMessage(fmt.Sprintf("m-%d", i), base.Add(time.Duration(i)*time.Hour)))
	}
	provider.failIDs["m-2"] = errors.New("transient upstream failure")
	p := newTestPipeline(t, provider)

	res, err := p.ListInbox(context.Background(), ListRequest{UserScope: "default", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("one bad message must not fail the page: %v", err)
	}
	if len(res.Items) != 4 {
		t.Fatalf("expected 4 items with one omitted, got %d", len(res.Items))
	}
	for _, item := range res.Items {
		if item.ExternalID == "m-2" {
			t.Fatal("failed message leaked into the page")
		}
	}
}

func TestListInboxAuthErrorIsFatal(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.listErr = &mailbox.AuthError{Message: "token expired"}
	p := newTestPipeline(t, provider)

	_, err := p.ListInbox(context.Background(), ListRequest{UserScope: "default", Page: 1, Limit: 10})
	if !mailbox.IsAuthError(err) {
		t.Fatalf("expected auth error to propagate, got %v", err)
	}
}

func TestListInboxReusesCache(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.add(rawMessage("cached", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	p := newTestPipeline(t, provider)
	ctx := context.Background()
	req := ListRequest{UserScope: "default", Page: 1, Limit: 10}

	if _, err := p.ListInbox(ctx, req); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if _, err := p.ListInbox(ctx, req); err != nil {
		t.Fatalf("second page: %v", err)
	}

	if got := provider.calls("cached"); got != 1 {
		t.Fatalf("expected 1 provider fetch with warm cache, got %d", got)
	}
}

func TestListInboxRebuildsStaleCacheRow(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.add(rawMessage("stale", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	s := testutil.NewTestStore(t)
	p := New(Deps{
		Provider:   provider,
		Store:      s,
		Classifier: classify.New(classify.DefaultTaxonomy()),
		RatePerSec: 10_000,
	})
	ctx := context.Background()

	// A cached row without a thread ID predates thread support.
	if err := s.UpsertMessage(ctx, &model.Message{
		ExternalID: "stale",
		Subject:    "stale copy",
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seeding stale row: %v", err)
	}

	res, err := p.ListInbox(ctx, ListRequest{UserScope: "default", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if got := provider.calls("stale"); got != 1 {
		t.Fatalf("stale row should trigger a rebuild, got %d fetches", got)
	}
	if len(res.Items) != 1 || res.Items[0].ThreadID != "thread-stale" {
		t.Fatalf("rebuilt message not served: %+v", res.Items)
	}
}

func TestListInboxMergesDecisionStatus(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	provider.add(rawMessage("m-acc", base.Add(2*time.Hour)))
	provider.add(rawMessage("m-rej", base.Add(time.Hour)))
	provider.add(rawMessage("m-new", base))
	s := testutil.NewTestStore(t)
	p := New(Deps{
		Provider:   provider,
		Store:      s,
		Classifier: classify.New(classify.DefaultTaxonomy()),
		RatePerSec: 10_000,
	})
	ctx := context.Background()

	for id, decision := range map[string]string{
		"m-acc": model.DecisionAccepted,
		"m-rej": model.DecisionRejected,
	} {
		if err := s.UpsertDecision(ctx, model.Decision{
			UserScope:  "default",
			ExternalID: id,
			Decision:   decision,
		}); err != nil {
			t.Fatalf("seeding decision: %v", err)
		}
	}

	res, err := p.ListInbox(ctx, ListRequest{UserScope: "default", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	statuses := make(map[string]string, len(res.Items))
	for _, item := range res.Items {
		statuses[item.ExternalID] = item.Status
	}
	if statuses["m-acc"] != model.StatusUnderEvaluation {
		t.Fatalf("accepted message: got %q", statuses["m-acc"])
	}
	if statuses["m-rej"] != model.StatusRejected {
		t.Fatalf("rejected message: got %q", statuses["m-rej"])
	}
	if statuses["m-new"] != model.StatusNew {
		t.Fatalf("undecided message: got %q", statuses["m-new"])
	}
}

func TestRepliesPromoteEffectiveTimestamp(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	root := rawMessage("root", base)
	provider.add(root)
	provider.threads["thread-root"] = []*mailbox.RawMessage{
		root,
		{
			ExternalID: "reply-1",
			ThreadID:   "thread-root",
			From:       "Partner <partner@fund.vc>",
			Snippet:    "Interesting, sending to the team.",
			Timestamp:  base.Add(6 * time.Hour),
		},
		{
			ExternalID: "reply-2",
			ThreadID:   "thread-root",
			From:       "asha@lendfast.io",
			Snippet:    "Attaching the data room.",
			Timestamp:  base.Add(30 * time.Hour),
		},
	}
	p := newTestPipeline(t, provider)

	msg, err := p.GetMessage(context.Background(), "default", "root")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if len(msg.Replies) != 2 {
		t.Fatalf("expected 2 replies (root excluded), got %d", len(msg.Replies))
	}
	if msg.Replies[0].ExternalID != "reply-2" {
		t.Fatalf("replies not newest first: %+v", msg.Replies)
	}
	if !msg.Timestamp.Equal(base.Add(30 * time.Hour)) {
		t.Fatalf("timestamp not promoted to newest reply: %v", msg.Timestamp)
	}
}

func TestReplyBumpedMessageSortsAheadOfNewerStandalone(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bumped := rawMessage("bumped", base)
	provider.add(bumped)
	provider.add(rawMessage("standalone", base.Add(10*time.Hour)))
	provider.threads["thread-bumped"] = []*mailbox.RawMessage{
		bumped,
		{
			ExternalID: "reply-1",
			ThreadID:   "thread-bumped",
			From:       "partner@fund.vc",
			Timestamp:  base.Add(30 * time.Hour),
		},
	}
	p := newTestPipeline(t, provider)

	res, err := p.ListInbox(context.Background(), ListRequest{UserScope: "default", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if res.Items[0].ExternalID != "bumped" {
		t.Fatalf("reply-bumped message should lead the feed, got %s", res.Items[0].ExternalID)
	}
}

func TestGetMessageEnrichesAndScores(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	msg := rawMessage("pitch", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	msg.Payload = plainPayload("We build lending rails. Deck: https://lendfast.io/deck")
	provider.add(msg)
	s := testutil.NewTestStore(t)
	p := New(Deps{
		Provider:   provider,
		Store:      s,
		Classifier: classify.New(classify.DefaultTaxonomy()),
		RatePerSec: 10_000,
	})
	ctx := context.Background()

	if err := s.PutThesis(ctx, model.Thesis{
		UserScope: "default",
		Sectors:   []string{"Fintech"},
		Keywords:  []string{"lending"},
	}); err != nil {
		t.Fatalf("seeding thesis: %v", err)
	}

	got, err := p.GetMessage(ctx, "default", "pitch")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.Sector != "Fintech" {
		t.Fatalf("expected Fintech classification, got %q", got.Sector)
	}
	if got.RelevanceScore != 100 {
		t.Fatalf("expected full match score 100, got %d", got.RelevanceScore)
	}
	if len(got.Links) != 1 || got.Links[0] != "https://lendfast.io/deck" {
		t.Fatalf("link extraction: %v", got.Links)
	}
	if got.From != "Asha Rao" || got.FromEmail != "asha@lendfast.io" {
		t.Fatalf("address split: from=%q email=%q", got.From, got.FromEmail)
	}
}

func TestGetMessageEmptyThesisScoresZero(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.add(rawMessage("pitch", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	p := newTestPipeline(t, provider)

	got, err := p.GetMessage(context.Background(), "default", "pitch")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.RelevanceScore != 0 {
		t.Fatalf("empty thesis must score 0, got %d", got.RelevanceScore)
	}
}
