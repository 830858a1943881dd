// Package bundle ties a fitted preprocessor and a trained classifier into
// the single deployable object the pipeline ships to the object store and
// the serving layer loads back.
package bundle

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/versich-treue/vtml-go/pkg/features"
	"github.com/versich-treue/vtml-go/pkg/ml"
)

// Metadata describes the training run a bundle came from.
type Metadata struct {
	ModelName      string
	Accuracy       float64
	FeatureColumns []string
	TrainedAt      time.Time
	RunID          string
}

// ModelBundle is the deployable unit: preprocessor plus classifier. Predict
// always runs the preprocessor first, so callers hand in raw encoded
// features and never scale anything themselves.
type ModelBundle struct {
	Preprocessor *features.Preprocessor
	Classifier   *ml.RandomForest
	Metadata     Metadata
	CreatedAt    time.Time
}

// New assembles a bundle from its fitted parts.
func New(pre *features.Preprocessor, clf *ml.RandomForest, meta Metadata) (*ModelBundle, error) {
	if pre == nil || !pre.IsFitted {
		return nil, fmt.Errorf("bundle needs a fitted preprocessor")
	}
	if clf == nil || len(clf.Trees) == 0 {
		return nil, fmt.Errorf("bundle needs a trained classifier")
	}
	return &ModelBundle{
		Preprocessor: pre,
		Classifier:   clf,
		Metadata:     meta,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Predict scales the rows with the bundled preprocessor and classifies
// them.
func (b *ModelBundle) Predict(X [][]float64) ([]int, error) {
	scaled, err := b.Preprocessor.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("preprocessing: %w", err)
	}
	preds, err := b.Classifier.PredictBatch(scaled)
	if err != nil {
		return nil, fmt.Errorf("classifying: %w", err)
	}
	return preds, nil
}

// PredictOne classifies a single row.
func (b *ModelBundle) PredictOne(x []float64) (int, error) {
	preds, err := b.Predict([][]float64{x})
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}

// Save gob-encodes the bundle, creating parent directories as needed.
func (b *ModelBundle) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(b); err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	return f.Close()
}

// Load reads a bundle persisted by Save.
func Load(path string) (*ModelBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a gob-encoded bundle from a stream, e.g. an object-store
// download.
func Decode(r io.Reader) (*ModelBundle, error) {
	var b ModelBundle
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return &b, nil
}
