// Package decompose provides linear dimensionality reduction.
package decompose

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/core/model"
	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// PCA は主成分分析による線形次元削減
// scikit-learnのPCAと互換性を持つ。SVDベースの実装のため、
// 同一入力に対して決定的（符号の規約を除く）
type PCA struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nComponents int  // 削減後の次元数
	whiten      bool // 白色化（各成分を単位分散にスケール）するか
	center      bool // 列平均を引くか

	// 学習パラメータ
	mean_                   []float64  // 各特徴量の平均
	components_             *mat.Dense // 主成分（nFeatures x nComponents）
	explainedVariance_      []float64  // 各成分の分散
	explainedVarianceRatio_ []float64  // 各成分の分散の全分散に対する比率
	singularValues_         []float64  // 特異値
	nFeatures_              int
	nSamples_               int
}

// NewPCA は新しいPCAを作成
func NewPCA(options ...PCAOption) *PCA {
	pca := &PCA{
		nComponents: 2,
		whiten:      false,
		center:      true,
	}
	for _, opt := range options {
		opt(pca)
	}
	return pca
}

// Fit は特徴行列から主成分を学習する
// gonumのSVDは不正な形状でpanicするため、エラーに変換して返す
func (p *PCA) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "PCA.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	if p.nComponents <= 0 {
		return errors.NewValidationError("nComponents", "must be positive", p.nComponents)
	}
	limit := r
	if c < limit {
		limit = c
	}
	if p.nComponents > limit {
		return errors.NewValidationError("nComponents",
			"must not exceed min(nSamples, nFeatures)", p.nComponents)
	}

	p.nSamples_ = r
	p.nFeatures_ = c

	centered, mean := p.centerData(X)
	p.mean_ = mean

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return errors.NewModelError("PCA.Fit", "SVD did not converge", errors.ErrSingularMatrix)
	}

	var v mat.Dense
	svd.VTo(&v)
	singular := svd.Values(nil)

	// 上位nComponents列を主成分として保持
	p.components_ = mat.NewDense(c, p.nComponents, nil)
	for j := 0; j < p.nComponents; j++ {
		for i := 0; i < c; i++ {
			p.components_.Set(i, j, v.At(i, j))
		}
	}

	denom := float64(r - 1)
	if r == 1 {
		denom = 1
	}
	total := 0.0
	for _, s := range singular {
		total += s * s / denom
	}
	p.singularValues_ = make([]float64, p.nComponents)
	p.explainedVariance_ = make([]float64, p.nComponents)
	p.explainedVarianceRatio_ = make([]float64, p.nComponents)
	for j := 0; j < p.nComponents; j++ {
		p.singularValues_[j] = singular[j]
		p.explainedVariance_[j] = singular[j] * singular[j] / denom
		if total > 0 {
			p.explainedVarianceRatio_[j] = p.explainedVariance_[j] / total
		}
	}

	p.SetFitted()
	return nil
}

// Transform は学習済みの主成分でデータを射影する
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}

	r, c := X.Dims()
	if c != p.nFeatures_ {
		return nil, errors.NewDimensionError("PCA.Transform", p.nFeatures_, c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-p.mean_[j])
		}
	}

	projected := mat.NewDense(r, p.nComponents, nil)
	projected.Mul(centered, p.components_)

	if p.whiten {
		for j := 0; j < p.nComponents; j++ {
			scale := math.Sqrt(p.explainedVariance_[j])
			if scale < 1e-12 {
				scale = 1.0
			}
			for i := 0; i < r; i++ {
				projected.Set(i, j, projected.At(i, j)/scale)
			}
		}
	}

	return projected, nil
}

// FitTransform は学習と変換を同時に行う
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Components は主成分（nFeatures x nComponents）のコピーを返す
func (p *PCA) Components() *mat.Dense {
	if p.components_ == nil {
		return nil
	}
	var out mat.Dense
	out.CloneFrom(p.components_)
	return &out
}

// ExplainedVariance は各成分の分散を返す
func (p *PCA) ExplainedVariance() []float64 {
	out := make([]float64, len(p.explainedVariance_))
	copy(out, p.explainedVariance_)
	return out
}

// ExplainedVarianceRatio は各成分の分散比率を返す
func (p *PCA) ExplainedVarianceRatio() []float64 {
	out := make([]float64, len(p.explainedVarianceRatio_))
	copy(out, p.explainedVarianceRatio_)
	return out
}

// GetParams はPCAのハイパーパラメータを返す
func (p *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": p.nComponents,
		"whiten":       p.whiten,
		"center":       p.center,
	}
}

// centerData は列平均を引いた行列と平均ベクトルを返す
func (p *PCA) centerData(X mat.Matrix) (*mat.Dense, []float64) {
	r, c := X.Dims()
	mean := make([]float64, c)
	if p.center {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			mean[j] = sum / float64(r)
		}
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-mean[j])
		}
	}
	return centered, mean
}
