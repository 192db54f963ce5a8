// Category resolution policy.
//
// The resolver composes the keyword rules and the statistical model as an
// ordered chain of strategies and applies the validation/defaulting policy:
// rules always win, the model only fills gaps, and anything outside the fixed
// taxonomy collapses to "Other".
package classifier

import "github.com/civitracker/go-complaints-backend/internal/domain"

// Provenance names which half of the hybrid pipeline decided a category.
// The values are the literal prediction_source strings stored on complaints.
type Provenance = string

const (
	// ProvenanceRules covers keyword matches and the no-model default path.
	ProvenanceRules Provenance = domain.PredictionManual
	// ProvenanceModel covers categories produced by the statistical classifier.
	ProvenanceModel Provenance = domain.PredictionModel
)

// Resolver decides a complaint's category. It is pure and side-effect-free:
// identical input always yields identical output, and Resolve performs no I/O.
type Resolver struct {
	rules Strategy
	model Strategy // nil when the trained artifact is unavailable

	modelVersion string
}

// NewResolver builds a Resolver over the keyword rules and an optional model.
// Pass a nil model to run in degraded, keyword-only mode.
func NewResolver(model *ModelClassifier) *Resolver {
	r := &Resolver{rules: KeywordClassifier{}}
	if model != nil {
		r.model = model
		r.modelVersion = model.Version()
	}
	return r
}

// ModelAvailable reports whether the statistical fallback is loaded.
func (r *Resolver) ModelAvailable() bool { return r.model != nil }

// ModelVersion returns the loaded artifact's version tag, or "" without a model.
func (r *Resolver) ModelVersion() string { return r.modelVersion }

// Resolve classifies text.
//
// Policy, in order:
//  1. keyword rules; a hit is final (rules take precedence over the model)
//  2. the statistical model, when loaded, with its output validated against
//     the fixed taxonomy ("Other" on anything unknown)
//  3. the "Other" default when neither layer has an answer
//
// Regardless of path, a result outside the taxonomy is coerced to "Other".
func (r *Resolver) Resolve(text string) (domain.Category, Provenance) {
	if cat, ok := r.rules.Classify(text); ok {
		return ensureKnown(cat), ProvenanceRules
	}
	if r.model != nil {
		if cat, ok := r.model.Classify(text); ok {
			return ensureKnown(cat), ProvenanceModel
		}
	}
	return domain.CategoryOther, ProvenanceRules
}

// RuleMatch reports whether the keyword rules alone decide text. The default
// "Other" fallback shares the rules provenance, so callers that care about an
// actual keyword hit ask here instead of inspecting the provenance.
func (r *Resolver) RuleMatch(text string) bool {
	_, ok := r.rules.Classify(text)
	return ok
}

// ensureKnown coerces any value outside the fixed category set to "Other".
func ensureKnown(c domain.Category) domain.Category {
	if domain.ValidCategory(c) {
		return c
	}
	return domain.CategoryOther
}
