// Package model provides the base estimator state and the interfaces shared
// by the transformers and clusterers in this library.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Clusterer は教師なしクラスタリングモデルのインターフェース
type Clusterer interface {
	Fitter
	Predictor

	// Labels は学習データに割り当てられたクラスタラベルを返す
	Labels() []int

	// ClusterCenters は学習されたクラスタ中心を返す
	ClusterCenters() [][]float64
}

// Embedder は低次元埋め込みを生成するモデルのインターフェース
// UMAPのように新規データへのTransformを持たないモデルが実装する
type Embedder interface {
	Fitter

	// Embedding は学習データの埋め込みを返す
	Embedding() (mat.Matrix, error)
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	// GetParams はモデルのハイパーパラメータを返す
	GetParams() map[string]interface{}
}
