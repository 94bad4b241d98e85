// Package patchscope explores the patch features of a frozen, pre-trained
// vision transformer (DINOv2) with classic unsupervised techniques.
//
// The library wires a single, synchronous pipeline: load a microscopy image
// stack and its label-mask stack, sample a batch, resize to the transformer's
// patch grid, extract one L2-normalized feature vector per patch through an
// ONNX export of the frozen model, and then inspect the flattened feature
// matrix with PCA (rendered as RGB), a 2-D UMAP embedding, and KMeans
// clustering compared against the downsampled ground-truth labels.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/YuminosukeSato/patchscope/config"
//	    "github.com/YuminosukeSato/patchscope/features"
//	    "github.com/YuminosukeSato/patchscope/pipeline"
//	)
//
//	func main() {
//	    cfg := config.DefaultConfig()
//	    cfg.Data.ImagePath = "training.tif"
//	    cfg.Data.MaskPath = "training_groundtruth.tif"
//
//	    ex, err := features.NewONNXExtractor(cfg.Model.ModelPath, cfg.Model.MetadataPath, cfg.Data.BatchSize)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer ex.Close()
//
//	    result, err := pipeline.Run(context.Background(), cfg, ex)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = result
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - dataset: multi-page TIFF stack loading, validation, batch sampling
//   - preprocess: bilinear/nearest resizing, CHW tensors, label downsampling, scalers
//   - features: frozen-transformer patch feature extraction (ONNX Runtime)
//   - grid: the flatten/reshape row-ordering contract for the patch grid
//   - decompose: PCA
//   - manifold: UMAP
//   - cluster: KMeans
//   - metrics: clustering-vs-ground-truth agreement scores
//   - visualize: panel images and embedding scatter plots
//   - pipeline: the end-to-end orchestration
package patchscope
