// Package cluster provides unsupervised clustering of patch-feature matrices.
package cluster

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/core/model"
	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// KMeans はLloyd法によるK-meansクラスタリング
// scikit-learnのKMeansと互換性を持つ
type KMeans struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nClusters   int     // クラスタ数
	init        string  // 初期化方法: "k-means++", "random"
	maxIter     int     // 最大イテレーション数
	tol         float64 // 中心移動量による収束判定の許容誤差
	nInit       int     // 異なる初期化での実行回数
	randomState int64   // 乱数シード

	// 学習パラメータ
	clusterCenters_ [][]float64 // クラスタ中心（nClusters x nFeatures）
	labels_         []int       // 各サンプルのクラスタラベル
	inertia_        float64     // クラスタ内平方和誤差
	nIter_          int         // 実行されたイテレーション数

	// 内部状態
	mu         sync.RWMutex
	rng        *rand.Rand
	nFeatures_ int
}

// NewKMeans は新しいKMeansを作成
func NewKMeans(options ...KMeansOption) *KMeans {
	kmeans := &KMeans{
		nClusters:   8,
		init:        "k-means++",
		maxIter:     300,
		tol:         1e-4,
		nInit:       10,
		randomState: -1,
	}

	for _, opt := range options {
		opt(kmeans)
	}

	if kmeans.randomState >= 0 {
		kmeans.rng = rand.New(rand.NewSource(kmeans.randomState))
	} else {
		kmeans.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return kmeans
}

// Fit はLloyd反復でモデルを訓練する
// nInit回の初期化を試し、慣性が最小の結果を採用する
func (kmeans *KMeans) Fit(X mat.Matrix) error {
	kmeans.mu.Lock()
	defer kmeans.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KMeans.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows < kmeans.nClusters {
		return errors.Newf("patchscope: KMeans.Fit: n_samples=%d < n_clusters=%d", rows, kmeans.nClusters)
	}

	kmeans.nFeatures_ = cols

	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	var bestLabels []int
	var bestNIter int
	bestConverged := false

	for run := 0; run < kmeans.nInit; run++ {
		centers, labels, inertia, nIter, converged := kmeans.lloydRun(X)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
			bestLabels = labels
			bestNIter = nIter
			bestConverged = converged
		}
	}

	kmeans.clusterCenters_ = bestCenters
	kmeans.labels_ = bestLabels
	kmeans.inertia_ = bestInertia
	kmeans.nIter_ = bestNIter

	if !bestConverged {
		errors.Warn(errors.NewConvergenceWarning("KMeans", kmeans.maxIter,
			"center shift did not drop below tol"))
	}

	kmeans.SetFitted()
	return nil
}

// lloydRun は単一の初期化からLloyd反復を収束まで実行する
func (kmeans *KMeans) lloydRun(X mat.Matrix) ([][]float64, []int, float64, int, bool) {
	rows, cols := X.Dims()

	centers := kmeans.initializeCenters(X)
	labels := make([]int, rows)
	counts := make([]int, kmeans.nClusters)
	sums := make([][]float64, kmeans.nClusters)
	for c := range sums {
		sums[c] = make([]float64, cols)
	}

	finalIter := 0
	converged := false
	for iter := 0; iter < kmeans.maxIter; iter++ {
		finalIter = iter + 1

		// 割り当てステップ
		for c := range sums {
			counts[c] = 0
			for j := range sums[c] {
				sums[c][j] = 0
			}
		}
		for i := 0; i < rows; i++ {
			sample := mat.Row(nil, i, X)
			nearest := kmeans.findNearestCluster(sample, centers)
			labels[i] = nearest
			counts[nearest]++
			for j, v := range sample {
				sums[nearest][j] += v
			}
		}

		// 更新ステップ。空クラスタは最遠サンプルへ再配置する
		shift := 0.0
		for c := 0; c < kmeans.nClusters; c++ {
			if counts[c] == 0 {
				idx := kmeans.farthestSample(X, centers, labels)
				newCenter := mat.Row(nil, idx, X)
				shift += euclideanDistance(centers[c], newCenter)
				copy(centers[c], newCenter)
				continue
			}
			for j := 0; j < cols; j++ {
				next := sums[c][j] / float64(counts[c])
				d := next - centers[c][j]
				shift += d * d
				centers[c][j] = next
			}
		}

		if shift < kmeans.tol {
			converged = true
			break
		}
	}

	// 最終的なラベルと慣性
	inertia := 0.0
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		nearest := kmeans.findNearestCluster(sample, centers)
		labels[i] = nearest
		d := euclideanDistance(sample, centers[nearest])
		inertia += d * d
	}

	return centers, labels, inertia, finalIter, converged
}

// Predict は入力データに対するクラスタ予測を行う
func (kmeans *KMeans) Predict(X mat.Matrix) (mat.Matrix, error) {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if !kmeans.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Predict")
	}

	rows, cols := X.Dims()
	if cols != kmeans.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Predict", kmeans.nFeatures_, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		predictions.Set(i, 0, float64(kmeans.findNearestCluster(sample, kmeans.clusterCenters_)))
	}
	return predictions, nil
}

// FitPredict は学習を行い、学習データのクラスタラベルを返す
func (kmeans *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	if err := kmeans.Fit(X); err != nil {
		return nil, err
	}
	return kmeans.Labels(), nil
}

// Transform はデータを各クラスタ中心との距離に変換する
func (kmeans *KMeans) Transform(X mat.Matrix) (mat.Matrix, error) {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if !kmeans.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Transform")
	}

	rows, cols := X.Dims()
	if cols != kmeans.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Transform", kmeans.nFeatures_, cols, 1)
	}

	distances := mat.NewDense(rows, kmeans.nClusters, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		for c := 0; c < kmeans.nClusters; c++ {
			distances.Set(i, c, euclideanDistance(sample, kmeans.clusterCenters_[c]))
		}
	}
	return distances, nil
}

// Labels は学習データのクラスタラベルのコピーを返す
func (kmeans *KMeans) Labels() []int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if kmeans.labels_ == nil {
		return nil
	}
	labels := make([]int, len(kmeans.labels_))
	copy(labels, kmeans.labels_)
	return labels
}

// ClusterCenters は学習されたクラスタ中心のコピーを返す
func (kmeans *KMeans) ClusterCenters() [][]float64 {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	centers := make([][]float64, len(kmeans.clusterCenters_))
	for i := range kmeans.clusterCenters_ {
		centers[i] = make([]float64, len(kmeans.clusterCenters_[i]))
		copy(centers[i], kmeans.clusterCenters_[i])
	}
	return centers
}

// Inertia は慣性（クラスタ内平方和誤差）を返す
func (kmeans *KMeans) Inertia() float64 {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return kmeans.inertia_
}

// NIterations は実行された学習イテレーション数を返す
func (kmeans *KMeans) NIterations() int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return kmeans.nIter_
}

// GetParams はKMeansのハイパーパラメータを返す
func (kmeans *KMeans) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_clusters":   kmeans.nClusters,
		"init":         kmeans.init,
		"max_iter":     kmeans.maxIter,
		"tol":          kmeans.tol,
		"n_init":       kmeans.nInit,
		"random_state": kmeans.randomState,
	}
}

// 内部ヘルパーメソッド

// initializeCenters はクラスタ中心を初期化
func (kmeans *KMeans) initializeCenters(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()

	switch kmeans.init {
	case "random":
		centers := make([][]float64, kmeans.nClusters)
		for i := 0; i < kmeans.nClusters; i++ {
			centers[i] = make([]float64, cols)
			copy(centers[i], mat.Row(nil, kmeans.rng.Intn(rows), X))
		}
		return centers
	default:
		// デフォルトはk-means++
		return kmeans.initKMeansPlusPlus(X)
	}
}

// initKMeansPlusPlus はk-means++初期化を実行
func (kmeans *KMeans) initKMeansPlusPlus(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()
	centers := make([][]float64, kmeans.nClusters)

	// 最初のクラスタ中心をランダムに選択
	centers[0] = make([]float64, cols)
	copy(centers[0], mat.Row(nil, kmeans.rng.Intn(rows), X))

	// 残りは最近傍中心からの距離の二乗に比例した確率で選択
	for c := 1; c < kmeans.nClusters; c++ {
		distances := make([]float64, rows)
		totalDistance := 0.0

		for i := 0; i < rows; i++ {
			sample := mat.Row(nil, i, X)
			minDist := math.Inf(1)
			for j := 0; j < c; j++ {
				if d := euclideanDistance(sample, centers[j]); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		target := kmeans.rng.Float64() * totalDistance
		cumSum := 0.0
		selectedIdx := 0
		for i := 0; i < rows; i++ {
			cumSum += distances[i]
			if cumSum >= target {
				selectedIdx = i
				break
			}
		}

		centers[c] = make([]float64, cols)
		copy(centers[c], mat.Row(nil, selectedIdx, X))
	}

	return centers
}

// farthestSample は現在の割り当てで自クラスタ中心から最も遠いサンプルを返す
func (kmeans *KMeans) farthestSample(X mat.Matrix, centers [][]float64, labels []int) int {
	rows, _ := X.Dims()
	worst, worstDist := 0, -1.0
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		if d := euclideanDistance(sample, centers[labels[i]]); d > worstDist {
			worstDist = d
			worst = i
		}
	}
	return worst
}

// findNearestCluster は最近傍クラスタを検索
func (kmeans *KMeans) findNearestCluster(sample []float64, centers [][]float64) int {
	minDist := math.Inf(1)
	nearestCluster := 0
	for c, center := range centers {
		if dist := euclideanDistance(sample, center); dist < minDist {
			minDist = dist
			nearestCluster = c
		}
	}
	return nearestCluster
}

// euclideanDistance はユークリッド距離を計算
func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
