// Package log defines standard attribute keys for pipeline operations.
//
// Using these keys consistently enables filtering a run's structured logs by
// stage, data shape, and timing. The keys follow a hierarchical naming
// convention (e.g. "model.name", "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator.
	// Examples: "PCA", "KMeans", "UMAP", "MinMaxScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "extract"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dataset", "preprocess", "features", "cluster"
	ComponentKey = "ml.component"

	// StageKey indicates the pipeline stage.
	// Examples: "load", "sample", "preprocess", "extract", "reduce", "cluster", "visualize"
	StageKey = "pipeline.stage"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the feature width (columns).
	FeaturesKey = "data.features"

	// BatchSizeKey indicates the number of slices in the sampled batch.
	BatchSizeKey = "data.batch_size"

	// SlicesKey indicates the number of slices in a loaded stack.
	SlicesKey = "data.slices"

	// GridSizeKey indicates the per-side patch grid resolution.
	GridSizeKey = "grid.size"

	// PatchSizeKey indicates the transformer patch size in pixels.
	PatchSizeKey = "grid.patch_size"

	// ClustersKey indicates the number of requested clusters.
	ClustersKey = "cluster.k"
)

// Performance and Quality
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the iteration count of an iterative algorithm.
	IterationKey = "training.iteration"

	// InertiaKey records the within-cluster sum of squares after KMeans.
	InertiaKey = "metrics.inertia"

	// PurityKey records cluster purity against the ground-truth labels.
	PurityKey = "metrics.purity"

	// ARIKey records the adjusted Rand index against the ground-truth labels.
	ARIKey = "metrics.ari"
)
