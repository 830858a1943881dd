package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds that carry no payload. Callers
// branch on them with errors.Is after the stage wrapping is applied.
var (
	// ErrSourceUnavailable marks a document or object store that could not
	// be reached.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEmptyDataset marks a collection export that returned zero rows.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrTransformFit marks an encoding, scaling, or resampling failure.
	ErrTransformFit = errors.New("transform fit failed")
)

// ThresholdError reports a trained model whose test accuracy fell below the
// configured acceptance floor. The run fails closed: no model is persisted
// and no downstream stage executes.
type ThresholdError struct {
	Accuracy  float64
	Threshold float64
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("model accuracy %.5f below acceptance threshold %.5f", e.Accuracy, e.Threshold)
}

// PreconditionError reports a deployment invoked without its required local
// model artifact.
type PreconditionError struct {
	Missing string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("deployment precondition not met: missing %s", e.Missing)
}
