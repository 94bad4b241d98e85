package cluster

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/core/model"
)

var (
	_ model.Clusterer       = (*KMeans)(nil)
	_ model.ParameterGetter = (*KMeans)(nil)
)

// blobs generates samplesPerCluster points around each of the given centers.
func blobs(centers [][]float64, samplesPerCluster int, spread float64, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	dim := len(centers[0])
	n := len(centers) * samplesPerCluster
	data := make([]float64, 0, n*dim)
	truth := make([]int, 0, n)
	for c, center := range centers {
		for s := 0; s < samplesPerCluster; s++ {
			for _, v := range center {
				data = append(data, v+rng.NormFloat64()*spread)
			}
			truth = append(truth, c)
		}
	}
	return mat.NewDense(n, dim, data), truth
}

func TestKMeansLabelRange(t *testing.T) {
	// Seven clusters over enough random data: every label stays in [0, 7)
	// and there are at most seven distinct values.
	rng := rand.New(rand.NewSource(11))
	data := make([]float64, 500*8)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	X := mat.NewDense(500, 8, data)

	kmeans := NewKMeans(WithNClusters(7), WithRandomState(42), WithNInit(3))
	labels, err := kmeans.FitPredict(X)
	if err != nil {
		t.Fatalf("FitPredict() error = %v", err)
	}
	if len(labels) != 500 {
		t.Fatalf("len(labels) = %d, want 500", len(labels))
	}

	distinct := make(map[int]bool)
	for _, l := range labels {
		if l < 0 || l >= 7 {
			t.Fatalf("label %d out of range [0,7)", l)
		}
		distinct[l] = true
	}
	if len(distinct) > 7 {
		t.Errorf("distinct labels = %d, want <= 7", len(distinct))
	}
}

func TestKMeansWellSeparatedRecovery(t *testing.T) {
	centers := [][]float64{
		{0, 0},
		{50, 0},
		{0, 50},
	}
	X, truth := blobs(centers, 40, 0.5, 7)

	kmeans := NewKMeans(WithNClusters(3), WithRandomState(1), WithNInit(5))
	labels, err := kmeans.FitPredict(X)
	if err != nil {
		t.Fatalf("FitPredict() error = %v", err)
	}

	// Each true cluster must map to exactly one predicted label.
	mapping := make(map[int]int)
	for i, l := range labels {
		if got, ok := mapping[truth[i]]; ok {
			if got != l {
				t.Fatalf("true cluster %d split across labels %d and %d", truth[i], got, l)
			}
		} else {
			mapping[truth[i]] = l
		}
	}
	if len(mapping) != 3 {
		t.Errorf("recovered %d clusters, want 3", len(mapping))
	}

	if kmeans.Inertia() > 100 {
		t.Errorf("inertia = %v, want small for well-separated blobs", kmeans.Inertia())
	}
}

func TestKMeansSeedDeterminism(t *testing.T) {
	X, _ := blobs([][]float64{{0, 0}, {10, 10}, {-10, 5}}, 30, 1.0, 13)

	first, err := NewKMeans(WithNClusters(3), WithRandomState(99)).FitPredict(X)
	if err != nil {
		t.Fatalf("FitPredict() error = %v", err)
	}
	second, err := NewKMeans(WithNClusters(3), WithRandomState(99)).FitPredict(X)
	if err != nil {
		t.Fatalf("FitPredict() error = %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("labels differ at %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestKMeansPredictConsistency(t *testing.T) {
	X, _ := blobs([][]float64{{0, 0}, {20, 20}}, 25, 0.5, 17)

	kmeans := NewKMeans(WithNClusters(2), WithRandomState(5))
	labels, err := kmeans.FitPredict(X)
	if err != nil {
		t.Fatalf("FitPredict() error = %v", err)
	}

	pred, err := kmeans.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i, l := range labels {
		if int(pred.At(i, 0)) != l {
			t.Fatalf("Predict disagrees with training label at %d", i)
		}
	}
}

func TestKMeansErrors(t *testing.T) {
	kmeans := NewKMeans(WithNClusters(3), WithRandomState(0))

	if _, err := kmeans.Predict(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("expected NotFittedError before Fit")
	}

	if err := kmeans.Fit(mat.NewDense(2, 2, []float64{0, 0, 1, 1})); err == nil {
		t.Error("expected error for n_samples < n_clusters")
	}

	X, _ := blobs([][]float64{{0, 0}, {5, 5}, {10, 0}}, 10, 0.2, 23)
	if err := kmeans.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if _, err := kmeans.Predict(mat.NewDense(4, 3, nil)); err == nil {
		t.Error("expected DimensionError for mismatched width")
	}
}
