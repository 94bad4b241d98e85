package preprocess

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/core/model"
)

var (
	_ model.Transformer = (*MinMaxScaler)(nil)
	_ model.Transformer = (*StandardScaler)(nil)
)

func TestMinMaxScalerScalesToUnitRange(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		-2.0, 10.0, 0.5,
		0.0, 20.0, 0.5,
		2.0, 15.0, 0.5,
		6.0, 40.0, 0.5,
	})

	scaler := NewMinMaxScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	r, c := scaled.Dims()
	if r != 4 || c != 3 {
		t.Fatalf("dims = (%d,%d), want (4,3)", r, c)
	}

	// Every value in [0,1], and non-constant columns attain both 0 and 1.
	for j := 0; j < c; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < r; i++ {
			v := scaled.At(i, j)
			if v < 0 || v > 1 {
				t.Errorf("value (%d,%d) = %v outside [0,1]", i, j, v)
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if j < 2 {
			if lo != 0 {
				t.Errorf("column %d min = %v, want 0", j, lo)
			}
			if hi != 1 {
				t.Errorf("column %d max = %v, want 1", j, hi)
			}
		}
	}

	// Constant column maps to a constant, still inside [0,1].
	for i := 0; i < r; i++ {
		if v := scaled.At(i, 2); math.Abs(v-scaled.At(0, 2)) > 1e-12 {
			t.Errorf("constant column changed at row %d: %v", i, v)
		}
	}
}

func TestMinMaxScalerInverseRoundTrip(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.0, -5.0,
		3.0, 0.0,
		9.0, 5.0,
	})

	scaler := NewMinMaxScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	back, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(back.At(i, j)-X.At(i, j)) > 1e-9 {
				t.Errorf("round trip (%d,%d) = %v, want %v", i, j, back.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestMinMaxScalerNotFitted(t *testing.T) {
	scaler := NewMinMaxScalerDefault()
	if _, err := scaler.Transform(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("expected NotFittedError")
	}
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1.0, 100.0,
		2.0, 200.0,
		3.0, 300.0,
		4.0, 400.0,
	})

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		sum, sumSq := 0.0, 0.0
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
		}
		mean := sum / float64(r)
		for i := 0; i < r; i++ {
			d := scaled.At(i, j) - mean
			sumSq += d * d
		}
		std := math.Sqrt(sumSq / float64(r))

		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		if math.Abs(std-1.0) > 1e-10 {
			t.Errorf("column %d std = %v, want 1", j, std)
		}
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScaler()
	if err := scaler.Fit(mat.NewDense(3, 2, nil)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(3, 5, nil)); err == nil {
		t.Error("expected DimensionError for mismatched feature count")
	}
}
