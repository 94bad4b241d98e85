// Command patchscope runs the patch-feature exploration pipeline: it
// samples a batch of microscopy slices, extracts per-patch transformer
// features from an ONNX export and writes PCA/UMAP/KMeans visualizations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/patchscope/config"
	"github.com/YuminosukeSato/patchscope/features"
	"github.com/YuminosukeSato/patchscope/pipeline"
	"github.com/YuminosukeSato/patchscope/pkg/log"
)

func main() {
	configPath := flag.String("config", "patchscope.yaml", "Path to the YAML configuration file")
	imagePath := flag.String("images", "", "Override the image stack path from the config")
	maskPath := flag.String("masks", "", "Override the mask stack path from the config")
	outputDir := flag.String("out", "", "Override the output directory from the config")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *imagePath != "" {
		cfg.Data.ImagePath = *imagePath
	}
	if *maskPath != "" {
		cfg.Data.MaskPath = *maskPath
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.SetOutput(console)
	if cfg.Output.Verbose {
		log.SetLevel(log.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := features.NewONNXExtractor(
		cfg.Model.ModelPath, cfg.Model.MetadataPath, cfg.Data.BatchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load model: %v\n", err)
		os.Exit(1)
	}
	defer extractor.Close()

	result, err := pipeline.Run(ctx, cfg, extractor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nExploration finished: %d images, %dx%d patch grid (%d patches)\n",
		result.Layout.Batch, result.Layout.Side, result.Layout.Side, result.Layout.Rows())
	fmt.Printf("Sampled slices: %v\n", result.Indices)
	fmt.Printf("KMeans inertia: %.2f\n", result.Inertia)
	fmt.Printf("Cluster vs. ground truth: purity %.3f, ARI %.3f, NMI %.3f\n",
		result.Purity, result.ARI, result.NMI)
	fmt.Printf("Panels and scatter plots written to %s\n", cfg.Output.Dir)
}
