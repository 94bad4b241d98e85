// Package manifold provides nonlinear dimensionality reduction for
// visualizing high-dimensional feature matrices.
package manifold

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/core/model"
	"github.com/YuminosukeSato/patchscope/core/parallel"
	"github.com/YuminosukeSato/patchscope/decompose"
	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// UMAP はUniform Manifold Approximation and Projectionによる
// 非線形次元削減。umap-learnのUMAPと互換性を持つ
//
// 実装はファジー単体集合の構築（k近傍 + 平滑化距離校正）と
// 負例サンプリングSGDによる埋め込み最適化からなる
type UMAP struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nNeighbors         int     // 近傍数
	nComponents        int     // 埋め込み次元数
	minDist            float64 // 埋め込み空間での最小距離
	spread             float64 // 埋め込みのスケール
	nEpochs            int     // SGDエポック数
	learningRate       float64 // 初期学習率
	negativeSampleRate int     // 正例1つあたりの負例数
	init               string  // 初期化方法: "pca", "random"
	randomState        int64   // 乱数シード

	// 学習パラメータ
	embedding_ *mat.Dense // 埋め込み（nSamples x nComponents）
	a_, b_     float64    // minDist/spreadから求めた曲線パラメータ

	// 内部状態
	mu        sync.RWMutex
	rng       *rand.Rand
	nSamples_ int
}

// knnResult は1サンプルのk近傍
type knnResult struct {
	indices   []int
	distances []float64
}

// edge はファジー単体集合の1辺
type edge struct {
	from, to int
	weight   float64
}

// NewUMAP は新しいUMAPを作成
func NewUMAP(options ...UMAPOption) *UMAP {
	u := &UMAP{
		nNeighbors:         15,
		nComponents:        2,
		minDist:            0.1,
		spread:             1.0,
		nEpochs:            200,
		learningRate:       1.0,
		negativeSampleRate: 5,
		init:               "pca",
		randomState:        -1,
	}

	for _, opt := range options {
		opt(u)
	}

	if u.randomState >= 0 {
		u.rng = rand.New(rand.NewSource(u.randomState))
	} else {
		u.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return u
}

// Fit は特徴行列から低次元埋め込みを学習する
func (u *UMAP) Fit(X mat.Matrix) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("UMAP.Fit", "empty data", errors.ErrEmptyData)
	}
	if u.nNeighbors < 2 {
		return errors.NewValidationError("nNeighbors", "must be at least 2", u.nNeighbors)
	}
	if rows <= u.nNeighbors {
		return errors.Newf("patchscope: UMAP.Fit: n_samples=%d must exceed n_neighbors=%d", rows, u.nNeighbors)
	}
	if u.nComponents <= 0 {
		return errors.NewValidationError("nComponents", "must be positive", u.nComponents)
	}

	u.nSamples_ = rows
	u.a_, u.b_ = findABParams(u.spread, u.minDist)

	knn := u.nearestNeighbors(X)
	edges := u.fuzzySimplicialSet(knn)

	embedding, err := u.initialEmbedding(X)
	if err != nil {
		return err
	}

	u.optimize(embedding, edges)
	u.embedding_ = embedding

	u.SetFitted()
	return nil
}

// FitTransform は学習を行い、埋め込みを返す
func (u *UMAP) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := u.Fit(X); err != nil {
		return nil, err
	}
	return u.Embedding()
}

// Embedding は学習済み埋め込み（nSamples x nComponents）のコピーを返す
func (u *UMAP) Embedding() (mat.Matrix, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if !u.IsFitted() {
		return nil, errors.NewNotFittedError("UMAP", "Embedding")
	}
	var out mat.Dense
	out.CloneFrom(u.embedding_)
	return &out, nil
}

// GetParams はUMAPのハイパーパラメータを返す
func (u *UMAP) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors":          u.nNeighbors,
		"n_components":         u.nComponents,
		"min_dist":             u.minDist,
		"spread":               u.spread,
		"n_epochs":             u.nEpochs,
		"learning_rate":        u.learningRate,
		"negative_sample_rate": u.negativeSampleRate,
		"init":                 u.init,
		"random_state":         u.randomState,
	}
}

// nearestNeighbors は全対全距離によるk近傍探索
// 行単位でデータ並列に計算しても結果は決定的
func (u *UMAP) nearestNeighbors(X mat.Matrix) []knnResult {
	rows, _ := X.Dims()
	k := u.nNeighbors
	results := make([]knnResult, rows)

	parallel.ParallelizeWithThreshold(rows, 64, func(start, end int) {
		for i := start; i < end; i++ {
			sample := mat.Row(nil, i, X)

			// 自分自身を除く上位k件を挿入ソートで保持
			idx := make([]int, 0, k)
			dist := make([]float64, 0, k)
			for j := 0; j < rows; j++ {
				if j == i {
					continue
				}
				d := euclideanDistance(sample, mat.Row(nil, j, X))
				pos := len(dist)
				for pos > 0 && dist[pos-1] > d {
					pos--
				}
				if pos >= k {
					continue
				}
				if len(dist) < k {
					dist = append(dist, 0)
					idx = append(idx, 0)
				}
				copy(dist[pos+1:], dist[pos:])
				copy(idx[pos+1:], idx[pos:])
				dist[pos] = d
				idx[pos] = j
			}
			results[i] = knnResult{indices: idx, distances: dist}
		}
	})

	return results
}

// fuzzySimplicialSet はk近傍グラフからファジー単体集合を構築する
// 各点のローカル接続性をrho（最近傍距離）とsigma（平滑化幅）で校正し、
// 有向メンバーシップを確率的和 w = a + b - a*b で対称化する
func (u *UMAP) fuzzySimplicialSet(knn []knnResult) []edge {
	n := len(knn)
	target := math.Log2(float64(u.nNeighbors))

	directed := make(map[[2]int]float64, n*u.nNeighbors)
	for i, nb := range knn {
		rho := nb.distances[0]
		sigma := smoothKNNDist(nb.distances, rho, target)

		for t, j := range nb.indices {
			d := nb.distances[t] - rho
			var w float64
			if d <= 0 || sigma == 0 {
				w = 1.0
			} else {
				w = math.Exp(-d / sigma)
			}
			directed[[2]int{i, j}] = w
		}
	}

	// 辺はインデックス順に列挙し、結果を決定的にする
	seen := make(map[[2]int]bool, len(directed))
	edges := make([]edge, 0, len(directed))
	for i, nb := range knn {
		for _, j := range nb.indices {
			a, b := i, j
			if a > b {
				a, b = b, a
			}
			if seen[[2]int{a, b}] {
				continue
			}
			seen[[2]int{a, b}] = true

			w1 := directed[[2]int{i, j}]
			w2 := directed[[2]int{j, i}]
			w := w1 + w2 - w1*w2
			if w > 0 {
				edges = append(edges, edge{from: a, to: b, weight: w})
			}
		}
	}
	return edges
}

// smoothKNNDist は sum_j exp(-(d_j - rho)/sigma) = log2(k) を満たす
// sigmaを二分探索で求める
func smoothKNNDist(distances []float64, rho, target float64) float64 {
	lo, hi, mid := 0.0, math.Inf(1), 1.0

	for iter := 0; iter < 64; iter++ {
		sum := 0.0
		for _, d := range distances {
			if adj := d - rho; adj > 0 {
				sum += math.Exp(-adj / mid)
			} else {
				sum += 1.0
			}
		}

		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}
	return mid
}

// initialEmbedding は初期埋め込みを生成する
// "pca"はPCA射影を単位スケールに正規化して使う。それ以外は一様乱数
func (u *UMAP) initialEmbedding(X mat.Matrix) (*mat.Dense, error) {
	rows, _ := X.Dims()

	if u.init == "pca" {
		pca := decompose.NewPCA(decompose.WithNComponents(u.nComponents))
		projected, err := pca.FitTransform(X)
		if err != nil {
			return nil, errors.Wrap(err, "patchscope: UMAP: PCA initialization failed")
		}

		// 最大絶対値で割って[-10, 10]程度に収める
		maxAbs := 0.0
		for i := 0; i < rows; i++ {
			for j := 0; j < u.nComponents; j++ {
				if v := math.Abs(projected.At(i, j)); v > maxAbs {
					maxAbs = v
				}
			}
		}
		if maxAbs == 0 {
			maxAbs = 1
		}
		embedding := mat.NewDense(rows, u.nComponents, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < u.nComponents; j++ {
				embedding.Set(i, j, projected.At(i, j)/maxAbs*10)
			}
		}
		return embedding, nil
	}

	embedding := mat.NewDense(rows, u.nComponents, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < u.nComponents; j++ {
			embedding.Set(i, j, (u.rng.Float64()*2-1)*10)
		}
	}
	return embedding, nil
}

// optimize は負例サンプリングSGDで埋め込みを最適化する
// 辺の重みに比例した頻度で正例（引力）を、一様乱数で負例（斥力）を適用する
func (u *UMAP) optimize(embedding *mat.Dense, edges []edge) {
	n, dim := embedding.Dims()
	if len(edges) == 0 {
		return
	}

	maxWeight := 0.0
	for _, e := range edges {
		if e.weight > maxWeight {
			maxWeight = e.weight
		}
	}

	// 重みに比例したサンプリング間隔（umap-learnのepochs_per_sample）
	epochsPerSample := make([]float64, len(edges))
	nextEpoch := make([]float64, len(edges))
	for i, e := range edges {
		epochsPerSample[i] = maxWeight / e.weight
		nextEpoch[i] = epochsPerSample[i]
	}

	a, b := u.a_, u.b_
	const clip = 4.0

	for epoch := 0; epoch < u.nEpochs; epoch++ {
		alpha := u.learningRate * (1.0 - float64(epoch)/float64(u.nEpochs))

		for ei, e := range edges {
			if nextEpoch[ei] > float64(epoch) {
				continue
			}
			nextEpoch[ei] += epochsPerSample[ei]

			p := embedding.RawRowView(e.from)
			q := embedding.RawRowView(e.to)

			// 引力: grad log(1/(1 + a d^2b))
			distSq := sqDist(p, q)
			if distSq > 0 {
				coeff := -2.0 * a * b * math.Pow(distSq, b-1)
				coeff /= a*math.Pow(distSq, b) + 1.0
				for d := 0; d < dim; d++ {
					g := clipGrad(coeff*(p[d]-q[d]), clip)
					p[d] += alpha * g
					q[d] -= alpha * g
				}
			}

			// 斥力: 一様に選んだ負例を遠ざける
			for s := 0; s < u.negativeSampleRate; s++ {
				k := u.rng.Intn(n)
				if k == e.from {
					continue
				}
				r := embedding.RawRowView(k)
				distSq := sqDist(p, r)
				if distSq > 0 {
					coeff := 2.0 * b
					coeff /= (0.001 + distSq) * (a*math.Pow(distSq, b) + 1.0)
					for d := 0; d < dim; d++ {
						g := clipGrad(coeff*(p[d]-r[d]), clip)
						p[d] += alpha * g
					}
				}
			}
		}
	}
}

// findABParams はminDistとspreadから曲線 1/(1 + a d^2b) のパラメータを求める
// 目標曲線は d <= minDist で 1、以降 exp(-(d - minDist)/spread)
// 粗いグリッド探索で二乗誤差を最小化する（決定的）
func findABParams(spread, minDist float64) (float64, float64) {
	const samples = 300
	xs := make([]float64, samples)
	ys := make([]float64, samples)
	for i := 0; i < samples; i++ {
		x := 3.0 * spread * float64(i+1) / samples
		xs[i] = x
		if x <= minDist {
			ys[i] = 1.0
		} else {
			ys[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	bestA, bestB := 1.0, 1.0
	bestErr := math.Inf(1)
	for b := 0.5; b <= 2.5; b += 0.01 {
		for a := 0.05; a <= 10.0; a += 0.05 {
			sse := 0.0
			for i := range xs {
				f := 1.0 / (1.0 + a*math.Pow(xs[i]*xs[i], b))
				d := f - ys[i]
				sse += d * d
			}
			if sse < bestErr {
				bestErr = sse
				bestA, bestB = a, b
			}
		}
	}
	return bestA, bestB
}

func clipGrad(g, limit float64) float64 {
	if g > limit {
		return limit
	}
	if g < -limit {
		return -limit
	}
	return g
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// euclideanDistance はユークリッド距離を計算
func euclideanDistance(a, b []float64) float64 {
	return math.Sqrt(sqDist(a, b))
}
