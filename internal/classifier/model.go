// Statistical classifier.
//
// The trained artifact is a JSON export of the original TF-IDF vectorizer,
// linear classifier, and label encoder. Inference reproduces the three-stage
// pipeline exactly: vectorize text into a sparse TF-IDF vector, score it
// against the per-class weight rows, and decode the winning class index back
// to a category label. Training is out of scope; only the artifact contract
// matters here.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/civitracker/go-complaints-backend/internal/domain"
)

// ErrModelUnavailable is returned by LoadModel when the artifact file is
// missing. The resolver treats an absent model as a degraded (keyword-only)
// configuration; this error never reaches API callers.
var ErrModelUnavailable = errors.New("classifier: model artifact unavailable")

// artifact is the on-disk JSON layout of the trained model triple.
type artifact struct {
	Version    string         `json:"version"`
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Coef       [][]float64    `json:"coef"`      // one weight row per class
	Intercept  []float64      `json:"intercept"` // one bias per class
	Labels     []string       `json:"labels"`    // class index -> category label
}

// ModelClassifier is the loaded statistical classifier. It is immutable after
// construction and safe for concurrent use.
type ModelClassifier struct {
	art artifact
}

// LoadModel reads and validates a trained artifact from path.
//
// A missing file yields ErrModelUnavailable; a present but malformed artifact
// yields a descriptive error. Either way the caller is expected to continue
// without a model rather than fail startup.
func LoadModel(path string) (*ModelClassifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelUnavailable
		}
		return nil, fmt.Errorf("classifier: read model artifact: %w", err)
	}
	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("classifier: decode model artifact: %w", err)
	}
	if err := validateArtifact(art); err != nil {
		return nil, err
	}
	return &ModelClassifier{art: art}, nil
}

// newModelFromArtifact builds a classifier from an in-memory artifact.
// Shared by LoadModel and tests.
func newModelFromArtifact(art artifact) (*ModelClassifier, error) {
	if err := validateArtifact(art); err != nil {
		return nil, err
	}
	return &ModelClassifier{art: art}, nil
}

func validateArtifact(art artifact) error {
	if len(art.Vocabulary) == 0 || len(art.Labels) == 0 || len(art.Coef) == 0 {
		return errors.New("classifier: model artifact incomplete")
	}
	if len(art.IDF) != len(art.Vocabulary) {
		return fmt.Errorf("classifier: idf length %d does not match vocabulary size %d", len(art.IDF), len(art.Vocabulary))
	}
	if len(art.Coef) != len(art.Labels) {
		return fmt.Errorf("classifier: %d weight rows for %d labels", len(art.Coef), len(art.Labels))
	}
	if len(art.Intercept) != len(art.Coef) {
		return fmt.Errorf("classifier: %d intercepts for %d weight rows", len(art.Intercept), len(art.Coef))
	}
	for i, row := range art.Coef {
		if len(row) != len(art.Vocabulary) {
			return fmt.Errorf("classifier: weight row %d has %d features, vocabulary has %d", i, len(row), len(art.Vocabulary))
		}
	}
	for term, idx := range art.Vocabulary {
		if idx < 0 || idx >= len(art.IDF) {
			return fmt.Errorf("classifier: vocabulary term %q maps to out-of-range index %d", term, idx)
		}
	}
	return nil
}

// Version reports the artifact's version tag.
func (m *ModelClassifier) Version() string { return m.art.Version }

// Classify runs vectorize -> predict -> decode on text. ok is false only when
// the text produces no in-vocabulary tokens, in which case the model has no
// signal and abstains.
func (m *ModelClassifier) Classify(text string) (domain.Category, bool) {
	vec := m.vectorize(text)
	if len(vec) == 0 {
		return "", false
	}
	return domain.Category(m.art.Labels[m.predict(vec)]), true
}

// vectorize builds a sparse L2-normalized TF-IDF vector keyed by feature index.
func (m *ModelClassifier) vectorize(text string) map[int]float64 {
	counts := make(map[int]int)
	for _, tok := range tokenize(text) {
		if idx, ok := m.art.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	vec := make(map[int]float64, len(counts))
	var sq float64
	for idx, n := range counts {
		w := float64(n) * m.art.IDF[idx]
		vec[idx] = w
		sq += w * w
	}
	if norm := math.Sqrt(sq); norm > 0 {
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec
}

// predict returns the class index with the highest decision score. Ties go to
// the lowest index, matching the original label encoder's ordering.
func (m *ModelClassifier) predict(vec map[int]float64) int {
	best, bestScore := 0, math.Inf(-1)
	for class, row := range m.art.Coef {
		score := m.art.Intercept[class]
		for idx, w := range vec {
			score += row[idx] * w
		}
		if score > bestScore {
			best, bestScore = class, score
		}
	}
	return best
}
