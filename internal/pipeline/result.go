package pipeline

import "github.com/AshwiniGoutam/pitchub-sub000/internal/model"

// taskResult is the settled outcome of one per-message task. Tasks
// never abort the batch: every task settles, and the page is assembled
// from whatever succeeded.
type taskResult struct {
	externalID string
	msg        *model.Message
	err        error
}

// partition separates settled results into successes and failures,
// preserving order.
func partition(results []taskResult) (ok []*model.Message, failed []taskResult) {
	for _, r := range results {
		if r.err != nil || r.msg == nil {
			failed = append(failed, r)
			continue
		}
		ok = append(ok, r.msg)
	}
	return ok, failed
}
