// Package classify assigns a sector label to a message using an
// ordered keyword taxonomy. It is a cheap, deterministic classifier
// kept on the hot listing path; model-based analysis is a separate,
// detail-view-only collaborator.
package classify

import (
	"strings"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
)

// Sector is one taxonomy entry. Table order is significant: the first
// sector with any keyword match wins.
type Sector struct {
	Name     string
	Keywords []string
}

// Classifier matches messages against an immutable taxonomy.
type Classifier struct {
	sectors []Sector
}

// DefaultTaxonomy is the built-in sector table, ordered by priority.
func DefaultTaxonomy() []Sector {
	return []Sector{
		{Name: "Fintech", Keywords: []string{"fintech", "payment", "lending", "banking", "insurance", "insurtech", "neobank", "credit"}},
		{Name: "Healthtech", Keywords: []string{"health", "medical", "biotech", "pharma", "telemedicine", "diagnostics", "clinical"}},
		{Name: "SaaS", Keywords: []string{"saas", "b2b software", "subscription", "crm", "workflow", "productivity"}},
		{Name: "AI/ML", Keywords: []string{"artificial intelligence", " ai ", "machine learning", "deep learning", "llm", "computer vision", "nlp"}},
		{Name: "E-commerce", Keywords: []string{"ecommerce", "e-commerce", "marketplace", "d2c", "retail", "commerce"}},
		{Name: "Edtech", Keywords: []string{"edtech", "education", "learning platform", "upskilling", "tutoring"}},
		{Name: "Climate", Keywords: []string{"climate", "clean energy", "solar", "carbon", "sustainability", "ev ", "battery"}},
		{Name: "Logistics", Keywords: []string{"logistics", "supply chain", "freight", "delivery", "warehousing"}},
		{Name: "Consumer", Keywords: []string{"consumer", "social app", "gaming", "creator", "food", "travel"}},
		{Name: "Deeptech", Keywords: []string{"deeptech", "robotics", "semiconductor", "space", "iot", "hardware"}},
	}
}

// New creates a Classifier over the given taxonomy. A nil or empty
// taxonomy falls back to the default table.
func New(sectors []Sector) *Classifier {
	if len(sectors) == 0 {
		sectors = DefaultTaxonomy()
	}
	return &Classifier{sectors: sectors}
}

// FromConfig builds a taxonomy from configuration entries, preserving
// their order.
func FromConfig(entries []model.SectorConfig) []Sector {
	out := make([]Sector, 0, len(entries))
	for _, e := range entries {
		out = append(out, Sector{Name: e.Name, Keywords: e.Keywords})
	}
	return out
}

// Classify returns the first sector whose keyword list has a substring
// match in the concatenated, lower-cased sender, subject, and body.
// Falls back to "General" when nothing matches.
func (c *Classifier) Classify(fromAddr, subject, body string) string {
	haystack := strings.ToLower(fromAddr + " " + subject + " " + body)

	for _, sector := range c.sectors {
		for _, kw := range sector.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(haystack, strings.ToLower(kw)) {
				return sector.Name
			}
		}
	}
	return model.DefaultSector
}
