// Keyword rule classifier.
//
// This file holds the static per-category keyword sets and the deterministic
// matcher that runs in front of the statistical model. Matching is substring
// based (not whole-word): "tap" matches inside "tapestry". That false-positive
// surface is accepted behavior, inherited by the category taxonomy on purpose,
// because it keeps the rule layer predictable and trivially auditable.
package classifier

import (
	"strings"

	"github.com/civitracker/go-complaints-backend/internal/domain"
)

// categoryRule binds one category to its keyword set. Rules are evaluated in
// slice order, which mirrors domain.Categories declaration order; the first
// category with any keyword hit wins, breaking ties between categories whose
// keywords both occur in the text.
type categoryRule struct {
	category domain.Category
	keywords []string
}

var categoryRules = []categoryRule{
	{domain.CategoryWater, []string{"water", "drinking", "supply", "leak", "pipe", "tap", "smell", "taste", "pressure"}},
	{domain.CategoryRoad, []string{"road", "pothole", "asphalt", "street", "highway", "repair", "damage", "construction"}},
	{domain.CategoryGarbage, []string{"garbage", "trash", "waste", "collection", "dump", "bin", "clean", "disposal"}},
	{domain.CategoryElectricity, []string{"electricity", "power", "outage", "blackout", "wire", "transformer", "voltage", "flickering"}},
	{domain.CategoryDrainage, []string{"drainage", "sewer", "flood", "waterlogging", "blockage", "clog", "overflow"}},
	{domain.CategoryOther, []string{"noise", "loudspeaker", "park", "tree", "animal", "stray", "public", "nuisance"}},
}

// Strategy is the capability shared by both halves of the hybrid pipeline:
// classify normalized complaint text, or report no opinion.
type Strategy interface {
	Classify(text string) (domain.Category, bool)
}

// KeywordClassifier maps complaint text to a category via case-insensitive
// substring matching against the static keyword sets. It is stateless and
// safe for concurrent use.
type KeywordClassifier struct{}

// Classify returns the first category (in declaration order) whose keyword
// set has a substring hit in text, or ok=false when nothing matches.
// Defaulting to "Other" is the resolver's job, not this layer's.
func (KeywordClassifier) Classify(text string) (domain.Category, bool) {
	lowered := normalizeText(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}
