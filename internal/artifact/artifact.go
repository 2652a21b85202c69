// Package artifact persists and loads the trained artifact: the frozen
// feature schema, the fitted preprocessing transform, the classifier, and
// the label-class ordering, bundled as a single gob file.
//
// Writes go through a temp file plus rename so a crash never leaves a
// partially-written artifact. Two concurrent retrains targeting the same
// path are last-writer-wins; there is no locking.
package artifact

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/propsignal/incentive-recommender/internal/model"
	"github.com/propsignal/incentive-recommender/internal/pipeline"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

func init() {
	gob.Register(&model.Forest{})
}

// Bundle is the trained artifact. It is created once by the trainer and
// read-only thereafter; the server loads it once at startup.
type Bundle struct {
	RunID        string
	TrainedAt    time.Time
	Schema       types.FeatureSchema
	Preprocessor *pipeline.Preprocessor
	Classifier   model.Classifier
	Classes      []string // label-class ordering for probability vectors
}

// NewRunID returns a lexicographically sortable training run ID.
func NewRunID() string {
	return ulid.Make().String()
}

// Save writes the bundle atomically: encode to a temp file in the target
// directory, then rename over the destination.
func Save(path string, b *Bundle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming artifact into place: %w", err)
	}
	return nil
}

// Load reads and validates a bundle. The schema is validated here rather
// than re-inferred: an artifact without features or class ordering is
// rejected at load time, not at first request.
func Load(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer file.Close()

	var b Bundle
	if err := gob.NewDecoder(file).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if len(b.Schema.Features) == 0 {
		return nil, fmt.Errorf("artifact %s: schema has no features", path)
	}
	if len(b.Classes) == 0 {
		return nil, fmt.Errorf("artifact %s: no class ordering", path)
	}
	if b.Preprocessor == nil || b.Classifier == nil {
		return nil, fmt.Errorf("artifact %s: incomplete bundle", path)
	}
	b.Preprocessor.Reindex()
	return &b, nil
}

// WriteMetrics writes the structured metrics record next to the artifact.
func WriteMetrics(path string, m types.TrainingMetrics) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
