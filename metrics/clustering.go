// Package metrics provides clustering evaluation against ground-truth labels.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// Purity はクラスタ純度を計算する
// 各クラスタで最多の真ラベルを数え、全サンプル数で割る。[0, 1]の値を返す
func Purity(labels, clusters []int) (float64, error) {
	n := len(labels)
	if n == 0 {
		return 0, errors.NewValueError("Purity", "empty input")
	}
	if len(clusters) != n {
		return 0, errors.NewDimensionError("Purity", n, len(clusters), 0)
	}

	// クラスタ × ラベルの出現数
	counts := make(map[int]map[int]int)
	for i := 0; i < n; i++ {
		if counts[clusters[i]] == nil {
			counts[clusters[i]] = make(map[int]int)
		}
		counts[clusters[i]][labels[i]]++
	}

	correct := 0
	for _, labelCounts := range counts {
		best := 0
		for _, c := range labelCounts {
			if c > best {
				best = c
			}
		}
		correct += best
	}

	return float64(correct) / float64(n), nil
}

// AdjustedRandIndex は調整ランド指数を計算する
// 偶然の一致を補正した[-1, 1]の値を返す。1が完全一致、0が偶然レベル
func AdjustedRandIndex(labels, clusters []int) (float64, error) {
	n := len(labels)
	if n == 0 {
		return 0, errors.NewValueError("AdjustedRandIndex", "empty input")
	}
	if len(clusters) != n {
		return 0, errors.NewDimensionError("AdjustedRandIndex", n, len(clusters), 0)
	}

	contingency, rowSums, colSums := contingencyTable(labels, clusters)

	sumComb := 0.0
	for _, row := range contingency {
		for _, v := range row {
			sumComb += comb2(v)
		}
	}
	sumRows := 0.0
	for _, v := range rowSums {
		sumRows += comb2(v)
	}
	sumCols := 0.0
	for _, v := range colSums {
		sumCols += comb2(v)
	}

	total := comb2(n)
	expected := sumRows * sumCols / total
	maxIndex := (sumRows + sumCols) / 2

	if maxIndex == expected {
		// 両側が単一クラスタなどの縮退ケースは完全一致として扱う
		return 1.0, nil
	}
	return (sumComb - expected) / (maxIndex - expected), nil
}

// NormalizedMutualInfo は正規化相互情報量を計算する
// 相互情報量をエントロピーの算術平均で正規化した[0, 1]の値を返す
func NormalizedMutualInfo(labels, clusters []int) (float64, error) {
	n := len(labels)
	if n == 0 {
		return 0, errors.NewValueError("NormalizedMutualInfo", "empty input")
	}
	if len(clusters) != n {
		return 0, errors.NewDimensionError("NormalizedMutualInfo", n, len(clusters), 0)
	}

	contingency, rowSums, colSums := contingencyTable(labels, clusters)
	fn := float64(n)

	mi := 0.0
	for li, row := range contingency {
		for ci, v := range row {
			if v == 0 {
				continue
			}
			pxy := float64(v) / fn
			px := float64(rowSums[li]) / fn
			py := float64(colSums[ci]) / fn
			mi += pxy * math.Log(pxy/(px*py))
		}
	}

	hLabels := entropy(rowSums, n)
	hClusters := entropy(colSums, n)
	if hLabels == 0 && hClusters == 0 {
		return 1.0, nil
	}
	denom := (hLabels + hClusters) / 2
	if denom == 0 {
		return 0, nil
	}
	return mi / denom, nil
}

// contingencyTable はラベル × クラスタの分割表と周辺和を返す
func contingencyTable(labels, clusters []int) (map[int]map[int]int, map[int]int, map[int]int) {
	contingency := make(map[int]map[int]int)
	rowSums := make(map[int]int)
	colSums := make(map[int]int)
	for i := range labels {
		if contingency[labels[i]] == nil {
			contingency[labels[i]] = make(map[int]int)
		}
		contingency[labels[i]][clusters[i]]++
		rowSums[labels[i]]++
		colSums[clusters[i]]++
	}
	return contingency, rowSums, colSums
}

// comb2 は二項係数 C(n, 2) を返す
func comb2(n int) float64 {
	return float64(n) * float64(n-1) / 2
}

// entropy は周辺分布のエントロピーを計算する
func entropy(sums map[int]int, n int) float64 {
	h := 0.0
	for _, v := range sums {
		if v == 0 {
			continue
		}
		p := float64(v) / float64(n)
		h -= p * math.Log(p)
	}
	return h
}
