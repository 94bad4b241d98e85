package features

import (
	"context"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
	"github.com/YuminosukeSato/patchscope/preprocess"
)

// ONNXExtractor runs a frozen patch-feature transformer exported to ONNX.
//
// The export is expected to emit patch tokens only, shaped
// (batch, grid*grid, embed_dim); any class token is stripped at export
// time. Tensors are allocated once for a fixed batch size and reused
// across calls, so an extractor handles exactly one batch shape.
type ONNXExtractor struct {
	meta      Meta
	batchSize int

	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]

	mu     sync.Mutex
	closed bool
}

// NewONNXExtractor loads a model and its metadata file and prepares a
// session for batches of batchSize images.
func NewONNXExtractor(modelPath, metadataPath string, batchSize int) (*ONNXExtractor, error) {
	if batchSize <= 0 {
		return nil, errors.NewValidationError("batchSize", "must be positive", batchSize)
	}

	meta, err := LoadMeta(metadataPath)
	if err != nil {
		return nil, err
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.Wrap(err, "patchscope: features: initialize ONNX runtime")
	}

	grid := meta.GridSize()
	inputShape := ort.NewShape(int64(batchSize), 3, int64(meta.InputSize), int64(meta.InputSize))
	outputShape := ort.NewShape(int64(batchSize), int64(grid*grid), int64(meta.EmbedDim))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, errors.Wrap(err, "patchscope: features: create input tensor")
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, errors.Wrap(err, "patchscope: features: create output tensor")
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, errors.Wrap(err, "patchscope: features: create session")
	}

	return &ONNXExtractor{
		meta:         meta,
		batchSize:    batchSize,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Meta returns the model metadata.
func (e *ONNXExtractor) Meta() Meta { return e.meta }

// GridSize returns the patch grid side.
func (e *ONNXExtractor) GridSize() int { return e.meta.GridSize() }

// EmbedDim returns the feature width.
func (e *ONNXExtractor) EmbedDim() int { return e.meta.EmbedDim }

// InputSize returns the expected input edge length.
func (e *ONNXExtractor) InputSize() int { return e.meta.InputSize }

// Extract runs one inference pass and returns a batchSize*N*N x EmbedDim
// matrix ordered batch-major, then row-major within each image.
func (e *ONNXExtractor) Extract(ctx context.Context, images []*image.Gray) (mat.Matrix, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errors.ErrExtractorClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "patchscope: features: Extract")
	}
	if len(images) != e.batchSize {
		return nil, errors.Newf("patchscope: features: Extract: batch size %d, session expects %d",
			len(images), e.batchSize)
	}

	chw, err := preprocess.ToCHW(images, e.meta.InputSize)
	if err != nil {
		return nil, err
	}
	e.normalize(chw)
	copy(e.inputTensor.GetData(), chw)

	if err := e.session.Run(); err != nil {
		return nil, errors.Wrap(err, "patchscope: features: inference failed")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "patchscope: features: Extract")
	}

	out := e.outputTensor.GetData()
	rows := e.batchSize * e.meta.GridSize() * e.meta.GridSize()
	cols := e.meta.EmbedDim

	X := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		dst := X.RawRowView(r)
		for c := 0; c < cols; c++ {
			dst[c] = float64(out[r*cols+c])
		}
	}
	if e.meta.Normalize {
		L2NormalizeRows(X)
	}
	return X, nil
}

// normalize applies per-channel (x - mean) / std in place. The tensor is
// channel-first, so each channel is one contiguous plane per image.
func (e *ONNXExtractor) normalize(chw []float32) {
	plane := e.meta.InputSize * e.meta.InputSize
	perImage := 3 * plane
	for b := 0; b < e.batchSize; b++ {
		for c := 0; c < 3; c++ {
			off := b*perImage + c*plane
			mean, std := e.meta.Mean[c], e.meta.Std[c]
			for p := 0; p < plane; p++ {
				chw[off+p] = (chw[off+p] - mean) / std
			}
		}
	}
}

// Close destroys the tensors, session and runtime environment.
func (e *ONNXExtractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	e.inputTensor.Destroy()
	e.outputTensor.Destroy()
	e.session.Destroy()
	return ort.DestroyEnvironment()
}
