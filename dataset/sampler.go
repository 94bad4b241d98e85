package dataset

import (
	"image"
	"math/rand"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// Batch is a sampled subset of a Stack. Pairing is positional:
// Masks[i] annotates Images[i], and Indices[i] records the slice's position
// in the source stack.
type Batch struct {
	Images  []*image.Gray
	Masks   []*image.Gray
	Indices []int
}

// Len returns the batch size.
func (b *Batch) Len() int {
	return len(b.Images)
}

// Sampler draws batches of distinct slices uniformly at random.
// A fixed seed makes the draw reproducible.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded for reproducibility.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws batchSize distinct indices without replacement and returns
// the corresponding image/mask pairs. The returned order is the shuffle
// order, not the stack order, but image/mask correspondence is preserved.
func (s *Sampler) Sample(stack *Stack, batchSize int) (*Batch, error) {
	if batchSize <= 0 {
		return nil, errors.NewValidationError("batchSize", "must be positive", batchSize)
	}
	if batchSize > stack.Len() {
		return nil, errors.NewValidationError("batchSize",
			"exceeds the number of slices in the stack", batchSize)
	}

	// Fisher-Yates prefix shuffle: the first batchSize entries are a uniform
	// draw without replacement.
	indices := make([]int, stack.Len())
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < batchSize; i++ {
		j := i + s.rng.Intn(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}
	indices = indices[:batchSize]

	batch := &Batch{
		Images:  make([]*image.Gray, batchSize),
		Masks:   make([]*image.Gray, batchSize),
		Indices: indices,
	}
	for i, idx := range indices {
		batch.Images[i] = stack.Images[idx]
		batch.Masks[i] = stack.Masks[idx]
	}
	return batch, nil
}
