package score

import (
	"testing"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

func TestScoreEmptyThesisIsZero(t *testing.T) {
	t.Parallel()

	msg := Input{Sector: "Fintech", Subject: "Lending pitch", Content: "india lending"}
	if got := Score(msg, model.Thesis{}); got != 0 {
		t.Fatalf("empty thesis: expected 0, got %d", got)
	}
}

func TestScoreSectorAndKeywordWithExclusionPenalty(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{
		Sectors:          []string{"Fintech"},
		Keywords:         []string{"lending"},
		ExcludedKeywords: []string{"crypto"},
	}
	msg := Input{
		Sector:  "Fintech",
		Subject: "Lending platform pitch",
		Content: "We are building a lending platform with a small crypto side-bet.",
	}

	// Sector 30/30 + keywords 40/40 normalizes to 100; one excluded
	// match takes 15 off.
	if got := Score(msg, thesis); got != 85 {
		t.Fatalf("expected 85, got %d", got)
	}
}

func TestScorePartialKeywordMatch(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{Keywords: []string{"lending", "credit", "payments", "insurance"}}
	msg := Input{Subject: "Lending and credit for SMBs", Content: ""}

	// 2 of 4 keywords: 20/40 achieved over 40 max = 50.
	if got := Score(msg, thesis); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestScoreGeographyOnly(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{Geographies: []string{"india", "sea"}}
	msg := Input{Content: "We operate across India and Bangladesh."}

	// 1 of 2 geographies: 10/20 over 20 max = 50.
	if got := Score(msg, thesis); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestScoreSkipsEmptyCategories(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{Sectors: []string{"Fintech"}}
	msg := Input{Sector: "Fintech"}

	// Only the sector category participates; a full match is 100, not
	// 30 out of an imaginary 90.
	if got := Score(msg, thesis); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestScoreClampsAtZero(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{
		Keywords:         []string{"robotics"},
		ExcludedKeywords: []string{"crypto", "gambling"},
	}
	msg := Input{Content: "crypto gambling platform"}

	if got := Score(msg, thesis); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestScoreExclusionOnlyThesis(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{ExcludedKeywords: []string{"crypto"}}
	msg := Input{Content: "crypto exchange"}

	if got := Score(msg, thesis); got != 0 {
		t.Fatalf("expected 0 with nothing to score against, got %d", got)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	t.Parallel()

	theses := []model.Thesis{
		{},
		{Sectors: []string{"Fintech"}},
		{Keywords: []string{"lending", "credit"}},
		{Geographies: []string{"india"}},
		{ExcludedKeywords: []string{"crypto"}},
		{
			Sectors:          []string{"Fintech", "SaaS"},
			Keywords:         []string{"lending", "crypto", "api"},
			ExcludedKeywords: []string{"crypto", "lending"},
			Geographies:      []string{"india", "us"},
		},
	}
	msgs := []Input{
		{},
		{Sector: "Fintech", Subject: "Lending crypto api india us", Content: "everything matches"},
		{Sector: "General", Content: "nothing matches"},
	}

	for _, thesis := range theses {
		for _, msg := range msgs {
			got := Score(msg, thesis)
			if got < 0 || got > 100 {
				t.Fatalf("score out of range: %d for msg=%+v thesis=%+v", got, msg, thesis)
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	thesis := model.Thesis{
		Sectors:  []string{"Fintech"},
		Keywords: []string{"lending", "credit"},
	}
	msg := Input{Sector: "Fintech", Subject: "Lending pitch", Content: "credit infrastructure"}

	first := Score(msg, thesis)
	for i := 0; i < 10; i++ {
		if got := Score(msg, thesis); got != first {
			t.Fatalf("nondeterministic score: %d then %d", first, got)
		}
	}
}
