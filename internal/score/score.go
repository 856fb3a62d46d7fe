// Package score computes the 0-100 relevance of a message against an
// investor thesis. Score is pure and deterministic: it runs both at
// ingestion and at display time and must agree with itself.
package score

import (
	"math"
	"strings"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

// Signal weights. Categories the thesis leaves empty are skipped, not
// penalized: they contribute to neither achieved nor max.
const (
	sectorWeight    = 30
	keywordWeight   = 40
	geographyWeight = 20
	excludedPenalty = 15
)

// Input is the scorable view of a message.
type Input struct {
	Sector  string
	Subject string
	Content string
}

// FromMessage adapts a cached message for scoring.
func FromMessage(m *model.Message) Input {
	return Input{Sector: m.Sector, Subject: m.Subject, Content: m.Content}
}

// Score returns the normalized relevance of msg for thesis, clamped to
// [0,100]. An empty thesis scores 0.
func Score(msg Input, thesis model.Thesis) int {
	if thesis.IsEmpty() {
		return 0
	}

	text := strings.ToLower(msg.Subject + " " + msg.Content)
	sector := strings.ToLower(msg.Sector)

	var achieved, max float64

	if len(thesis.Sectors) > 0 {
		max += sectorWeight
		for _, s := range thesis.Sectors {
			if s == "" {
				continue
			}
			if strings.Contains(sector, strings.ToLower(s)) {
				achieved += sectorWeight
				break
			}
		}
	}

	if len(thesis.Keywords) > 0 {
		max += keywordWeight
		matched := 0
		for _, kw := range thesis.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(kw)) {
				matched++
			}
		}
		achieved += keywordWeight * float64(matched) / float64(len(thesis.Keywords))
	}

	if len(thesis.Geographies) > 0 {
		max += geographyWeight
		matched := 0
		for _, geo := range thesis.Geographies {
			if geo == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(geo)) {
				matched++
			}
		}
		achieved += geographyWeight * float64(matched) / float64(len(thesis.Geographies))
	}

	if max == 0 {
		// Only excluded keywords are set; nothing to score against.
		return 0
	}

	result := math.Round(100 * achieved / max)

	// Exclusions penalize after normalization and may drive the score
	// negative before clamping.
	for _, kw := range thesis.ExcludedKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			result -= excludedPenalty
		}
	}

	if result < 0 {
		return 0
	}
	if result > 100 {
		return 100
	}
	return int(result)
}
