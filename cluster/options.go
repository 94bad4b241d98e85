package cluster

// KMeansOption はKMeansの設定オプション
type KMeansOption func(*KMeans)

// WithNClusters はクラスタ数を設定
func WithNClusters(n int) KMeansOption {
	return func(k *KMeans) {
		k.nClusters = n
	}
}

// WithInit は初期化方法を設定（"k-means++" または "random"）
func WithInit(init string) KMeansOption {
	return func(k *KMeans) {
		k.init = init
	}
}

// WithMaxIter は最大イテレーション数を設定
func WithMaxIter(maxIter int) KMeansOption {
	return func(k *KMeans) {
		k.maxIter = maxIter
	}
}

// WithTol は収束判定の許容誤差を設定
func WithTol(tol float64) KMeansOption {
	return func(k *KMeans) {
		k.tol = tol
	}
}

// WithNInit は異なる初期化での実行回数を設定
func WithNInit(nInit int) KMeansOption {
	return func(k *KMeans) {
		k.nInit = nInit
	}
}

// WithRandomState は乱数シードを設定（負の値で時刻ベース）
func WithRandomState(seed int64) KMeansOption {
	return func(k *KMeans) {
		k.randomState = seed
	}
}
