package features

import (
	"encoding/json"
	"os"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// Meta describes an exported patch-feature model. It is stored as a JSON
// file next to the .onnx file at export time.
type Meta struct {
	// PatchSize is the transformer patch edge length in pixels.
	PatchSize int `json:"patch_size"`
	// EmbedDim is the per-patch feature width.
	EmbedDim int `json:"embed_dim"`
	// InputSize is the expected input edge length in pixels. It must be a
	// multiple of PatchSize; the grid side is InputSize/PatchSize.
	InputSize int `json:"input_size"`
	// Mean and Std are the per-channel normalization constants applied to
	// [0,1] inputs before inference.
	Mean [3]float32 `json:"mean"`
	Std  [3]float32 `json:"std"`
	// InputName and OutputName are the graph tensor names.
	InputName  string `json:"input_name"`
	OutputName string `json:"output_name"`
	// Normalize requests L2 normalization of each output row.
	Normalize bool `json:"normalize"`
}

// LoadMeta reads and validates a model metadata file.
func LoadMeta(path string) (Meta, error) {
	var m Meta

	raw, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrap(err, "patchscope: features: read metadata")
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, errors.Wrap(err, "patchscope: features: parse metadata")
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// Validate checks the metadata invariants.
func (m Meta) Validate() error {
	if m.PatchSize <= 0 {
		return errors.NewValidationError("patch_size", "must be positive", m.PatchSize)
	}
	if m.EmbedDim <= 0 {
		return errors.NewValidationError("embed_dim", "must be positive", m.EmbedDim)
	}
	if m.InputSize <= 0 {
		return errors.NewValidationError("input_size", "must be positive", m.InputSize)
	}
	if m.InputSize%m.PatchSize != 0 {
		return errors.NewValidationError("input_size",
			"must be a multiple of patch_size", m.InputSize)
	}
	for c := 0; c < 3; c++ {
		if m.Std[c] == 0 {
			return errors.NewValidationError("std", "must be nonzero", m.Std[c])
		}
	}
	if m.InputName == "" || m.OutputName == "" {
		return errors.NewValidationError("input_name/output_name",
			"must name the graph tensors", "")
	}
	return nil
}

// GridSize returns the patch grid side InputSize/PatchSize.
func (m Meta) GridSize() int {
	return m.InputSize / m.PatchSize
}
