package manifold

// UMAPOption はUMAPの設定オプション
type UMAPOption func(*UMAP)

// WithNNeighbors は近傍数を設定
// 小さい値は局所構造を、大きい値は大域構造を重視する
func WithNNeighbors(n int) UMAPOption {
	return func(u *UMAP) {
		u.nNeighbors = n
	}
}

// WithNComponents は埋め込み次元数を設定
func WithNComponents(n int) UMAPOption {
	return func(u *UMAP) {
		u.nComponents = n
	}
}

// WithMinDist は埋め込み空間での点間の最小距離を設定
func WithMinDist(d float64) UMAPOption {
	return func(u *UMAP) {
		u.minDist = d
	}
}

// WithSpread は埋め込みのスケールを設定
func WithSpread(s float64) UMAPOption {
	return func(u *UMAP) {
		u.spread = s
	}
}

// WithNEpochs はSGDの最適化エポック数を設定
func WithNEpochs(n int) UMAPOption {
	return func(u *UMAP) {
		u.nEpochs = n
	}
}

// WithLearningRate は初期学習率を設定
func WithLearningRate(lr float64) UMAPOption {
	return func(u *UMAP) {
		u.learningRate = lr
	}
}

// WithNegativeSampleRate は正例1つあたりの負例数を設定
func WithNegativeSampleRate(n int) UMAPOption {
	return func(u *UMAP) {
		u.negativeSampleRate = n
	}
}

// WithInit は初期化方法を設定（"pca" または "random"）
func WithInit(init string) UMAPOption {
	return func(u *UMAP) {
		u.init = init
	}
}

// WithRandomState は乱数シードを設定（負の値で時刻ベース）
func WithRandomState(seed int64) UMAPOption {
	return func(u *UMAP) {
		u.randomState = seed
	}
}
