// Standard attribute keys for structured log records.
//
// Keys follow a dotted naming convention ("model.name", "data.samples") so
// records from the estimators, the LP solver and the network trainer can be
// filtered uniformly.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or network, e.g. "RLSSVD".
	ModelNameKey = "model.name"

	// OperationKey names the operation: "regress", "slopes", "fit", "refine".
	OperationKey = "ml.operation"

	// ComponentKey is the package emitting the record: "linear", "network", "lp".
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	TargetsKey  = "data.targets"
	NeuronsKey  = "network.neurons"
)

// Iterative procedures and numerical diagnostics.
const (
	IterationKey      = "training.iteration"
	RetriesKey        = "training.retries"
	RankKey           = "linalg.rank"
	ConditionKey      = "linalg.condition"
	RetainedKey       = "linalg.retained"
	ResidualKey       = "metrics.residual"
	DurationMsKey     = "perf.duration_ms"
	ObjectiveKey      = "lp.objective"
	ConstraintsKey    = "lp.constraints"
	VariablesKey      = "lp.variables"
	RegularizationKey = "hyperparams.regularization"
	RandomSeedKey     = "config.random_seed"
)

// Gradient refinement outcomes.
const (
	RefineAcceptedKey = "refine.accepted"
	RefineRejectedKey = "refine.rejected"
	RefineSkippedKey  = "refine.skipped"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Standard values.
const (
	OperationRegress = "regress"
	OperationSlopes  = "slopes"
	OperationFit     = "fit"
	OperationRefine  = "refine"
	OperationPredict = "predict"
	OperationSolve   = "solve"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
	ErrorInfeasible        = "LP_INFEASIBLE"
)
