// Package pipeline orchestrates the patch-feature exploration run: stack
// loading, batch sampling, resizing, feature extraction, label
// downsampling, PCA/UMAP/KMeans and visualization output.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/patchscope/cluster"
	"github.com/YuminosukeSato/patchscope/config"
	"github.com/YuminosukeSato/patchscope/dataset"
	"github.com/YuminosukeSato/patchscope/decompose"
	"github.com/YuminosukeSato/patchscope/features"
	"github.com/YuminosukeSato/patchscope/grid"
	"github.com/YuminosukeSato/patchscope/manifold"
	"github.com/YuminosukeSato/patchscope/metrics"
	"github.com/YuminosukeSato/patchscope/pkg/errors"
	"github.com/YuminosukeSato/patchscope/pkg/log"
	"github.com/YuminosukeSato/patchscope/preprocess"
	"github.com/YuminosukeSato/patchscope/visualize"
)

// Result carries everything a caller needs to inspect a finished run.
type Result struct {
	// Layout is the row-ordering contract of the run.
	Layout grid.Layout

	// Indices are the sampled slice positions in the source stack.
	Indices []int

	// RGB is the min-max scaled PCA projection, Rows x 3 in [0,1].
	RGB mat.Matrix

	// Embedding is the 2D UMAP embedding, Rows x 2.
	Embedding mat.Matrix

	// ClusterIDs holds one KMeans assignment per patch row.
	ClusterIDs []int

	// PatchLabels holds one downsampled ground-truth label per patch row.
	PatchLabels []int

	// Inertia is the final KMeans within-cluster sum of squares.
	Inertia float64

	// Purity, ARI and NMI compare ClusterIDs against PatchLabels.
	Purity float64
	ARI    float64
	NMI    float64
}

// Run executes the full exploration pipeline and writes panels, scatter
// plots and the result summary under cfg.Output.Dir.
func Run(ctx context.Context, cfg *config.Config, extractor features.Extractor) (*Result, error) {
	logger := log.GetLoggerWithName("pipeline")
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Stage 1: load and validate the image/mask stacks.
	stack, err := dataset.LoadPair(cfg.Data.ImagePath, cfg.Data.MaskPath, cfg.Data.NumClasses)
	if err != nil {
		return nil, err
	}
	logger.Info("stack loaded",
		log.StageKey, "load",
		log.SlicesKey, stack.Len())

	// Stage 2: sample a batch of slice pairs.
	batch, err := dataset.NewSampler(cfg.Data.Seed).Sample(stack, cfg.Data.BatchSize)
	if err != nil {
		return nil, err
	}
	logger.Info("batch sampled",
		log.StageKey, "sample",
		log.BatchSizeKey, batch.Len())

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "patchscope: pipeline")
	}

	// Stage 3: resize images (bilinear) and masks (nearest neighbor) to
	// the extractor's input edge.
	size := extractor.InputSize()
	images := make([]*image.Gray, batch.Len())
	masks := make([]*image.Gray, batch.Len())
	for i := range batch.Images {
		if images[i], err = preprocess.ResizeImage(batch.Images[i], size); err != nil {
			return nil, err
		}
		if masks[i], err = preprocess.ResizeMask(batch.Masks[i], size); err != nil {
			return nil, err
		}
	}
	logger.Info("batch resized",
		log.StageKey, "resize",
		log.GridSizeKey, extractor.GridSize())

	// Stage 4: per-patch features.
	extractStart := time.Now()
	X, err := extractor.Extract(ctx, images)
	if err != nil {
		return nil, err
	}
	layout, err := grid.NewLayout(batch.Len(), extractor.GridSize())
	if err != nil {
		return nil, err
	}
	if err := layout.CheckRows(X); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	logger.Info("features extracted",
		log.StageKey, "extract",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DurationMsKey, time.Since(extractStart).Milliseconds())

	// Stage 5: ground-truth labels on the patch grid, same row order.
	cells, err := preprocess.DownsampleBatch(masks, layout.Side)
	if err != nil {
		return nil, err
	}
	patchLabels := make([]int, len(cells))
	for i, v := range cells {
		patchLabels[i] = int(v)
	}

	// Stage 6: PCA to 3 components, min-max scaled per column for RGB.
	pca := decompose.NewPCA(
		decompose.WithNComponents(cfg.PCA.Components),
		decompose.WithWhiten(cfg.PCA.Whiten))
	projected, err := pca.FitTransform(X)
	if err != nil {
		return nil, err
	}
	rgb, err := preprocess.NewMinMaxScalerDefault().FitTransform(projected)
	if err != nil {
		return nil, err
	}
	logger.Info("pca projected",
		log.StageKey, "pca",
		"pca.components", cfg.PCA.Components)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "patchscope: pipeline")
	}

	// Stage 7: 2D UMAP embedding, optionally on standardized features.
	umapInput := X
	if cfg.UMAP.Standardize {
		if umapInput, err = preprocess.NewStandardScaler().FitTransform(X); err != nil {
			return nil, err
		}
	}
	umapStart := time.Now()
	umap := manifold.NewUMAP(
		manifold.WithNNeighbors(cfg.UMAP.Neighbors),
		manifold.WithMinDist(cfg.UMAP.MinDist),
		manifold.WithNComponents(cfg.UMAP.Components),
		manifold.WithNEpochs(cfg.UMAP.Epochs),
		manifold.WithInit(cfg.UMAP.Init),
		manifold.WithRandomState(cfg.UMAP.Seed))
	embedding, err := umap.FitTransform(umapInput)
	if err != nil {
		return nil, err
	}
	logger.Info("umap embedded",
		log.StageKey, "umap",
		log.DurationMsKey, time.Since(umapStart).Milliseconds())

	// Stage 8: KMeans over the raw features.
	kmeans := cluster.NewKMeans(
		cluster.WithNClusters(cfg.KMeans.Clusters),
		cluster.WithMaxIter(cfg.KMeans.MaxIter),
		cluster.WithTol(cfg.KMeans.Tol),
		cluster.WithNInit(cfg.KMeans.NInit),
		cluster.WithRandomState(cfg.KMeans.Seed))
	clusterIDs, err := kmeans.FitPredict(X)
	if err != nil {
		return nil, err
	}
	logger.Info("patches clustered",
		log.StageKey, "kmeans",
		log.ClustersKey, cfg.KMeans.Clusters,
		log.InertiaKey, kmeans.Inertia())

	// Stage 9: clustering quality against the downsampled ground truth.
	purity, err := metrics.Purity(patchLabels, clusterIDs)
	if err != nil {
		return nil, err
	}
	ari, err := metrics.AdjustedRandIndex(patchLabels, clusterIDs)
	if err != nil {
		return nil, err
	}
	nmi, err := metrics.NormalizedMutualInfo(patchLabels, clusterIDs)
	if err != nil {
		return nil, err
	}
	logger.Info("clustering scored",
		log.StageKey, "metrics",
		log.PurityKey, purity,
		log.ARIKey, ari)

	result := &Result{
		Layout:      layout,
		Indices:     batch.Indices,
		RGB:         rgb,
		Embedding:   embedding,
		ClusterIDs:  clusterIDs,
		PatchLabels: patchLabels,
		Inertia:     kmeans.Inertia(),
		Purity:      purity,
		ARI:         ari,
		NMI:         nmi,
	}

	// Stage 10: panels and scatter plots.
	if err := writeOutputs(cfg, images, result); err != nil {
		return nil, err
	}
	logger.Info("run finished",
		log.StageKey, "done",
		log.DurationMsKey, time.Since(start).Milliseconds())

	return result, nil
}

// writeOutputs renders one panel strip per sampled image plus the two
// embedding scatter plots.
func writeOutputs(cfg *config.Config, images []*image.Gray, res *Result) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return errors.Wrap(err, "patchscope: pipeline: create output dir")
	}

	labelGrids, err := grid.FoldLabels(res.PatchLabels, res.Layout)
	if err != nil {
		return err
	}
	clusterGrids, err := grid.FoldLabels(res.ClusterIDs, res.Layout)
	if err != nil {
		return err
	}

	// Every tile is rendered at Side*UpscaleFactor pixels so the panel
	// strips line up, including the input image.
	factor := cfg.Output.UpscaleFactor
	edge := uint(res.Layout.Side * factor)

	for b := 0; b < res.Layout.Batch; b++ {
		pcaImg, err := visualize.PCAImage(res.RGB, res.Layout, b)
		if err != nil {
			return err
		}

		panel := visualize.ComposePanel(4,
			resize.Resize(edge, edge, images[b], resize.Bilinear),
			visualize.Upscale(pcaImg, factor),
			visualize.Upscale(visualize.LabelImage(labelGrids[b]), factor),
			visualize.Upscale(visualize.LabelImage(clusterGrids[b]), factor))

		name := fmt.Sprintf("panel_%02d_slice_%03d.png", b, res.Indices[b])
		if err := visualize.SavePNG(filepath.Join(cfg.Output.Dir, name), panel); err != nil {
			return err
		}
	}

	if err := visualize.ScatterPlot(res.Embedding, res.PatchLabels,
		"UMAP embedding by ground-truth label",
		filepath.Join(cfg.Output.Dir, "umap_by_label.png")); err != nil {
		return err
	}
	return visualize.ScatterPlot(res.Embedding, res.ClusterIDs,
		"UMAP embedding by cluster",
		filepath.Join(cfg.Output.Dir, "umap_by_cluster.png"))
}
