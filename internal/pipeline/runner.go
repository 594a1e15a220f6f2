// Package pipeline provides E2E orchestration of the batch run.
// It coordinates: aggregation → labeling → feature build → training →
// evaluation → ranking → reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"purchase-intent-lab/internal/aggregate"
	"purchase-intent-lab/internal/classifier"
	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/evaluate"
	"purchase-intent-lab/internal/feature"
	"purchase-intent-lab/internal/idhash"
	"purchase-intent-lab/internal/label"
	"purchase-intent-lab/internal/rank"
	"purchase-intent-lab/internal/reporting"
	"purchase-intent-lab/internal/split"
	"purchase-intent-lab/internal/storage"
)

// Errors returned before and during a run.
var (
	// ErrConfiguration wraps every RunConfig validation failure. Nothing is
	// scanned or written when configuration is invalid.
	ErrConfiguration = errors.New("invalid pipeline configuration")

	// ErrEmptyTrainPartition is returned when the train window yields zero
	// feature vectors. Training on nothing has no meaningful fallback.
	ErrEmptyTrainPartition = errors.New("train partition produced no feature vectors")
)

// Output file names written to the configured output directory.
const (
	ReportFileName      = "REPORT.md"
	PredictionsFileName = "ranked_predictions.csv"
	TopKFileName        = "topk_metrics.csv"
)

// RunConfig holds everything a single batch run needs to be reproducible.
type RunConfig struct {
	Windows         split.Config
	FeatureColumns  []string // empty means domain.DefaultFeatureColumns
	LabelDefinition label.Definition
	Threshold       float64 // decision threshold for predicted_label
	TopKFraction    float64 // fraction of the ranked score partition to report on
	OutputDir       string  // empty disables file output
}

// Validate rejects the configuration before any data is scanned.
// All errors wrap ErrConfiguration.
func (c RunConfig) Validate() error {
	if err := c.Windows.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if !c.LabelDefinition.Valid() {
		return fmt.Errorf("%w: unknown label definition %q", ErrConfiguration, c.LabelDefinition)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %f outside [0, 1]", ErrConfiguration, c.Threshold)
	}
	if c.TopKFraction <= 0 || c.TopKFraction > 1 {
		return fmt.Errorf("%w: top-k fraction %f outside (0, 1]", ErrConfiguration, c.TopKFraction)
	}
	if _, err := classifier.NewSchema(c.columns()); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (c RunConfig) columns() []string {
	if len(c.FeatureColumns) == 0 {
		return domain.DefaultFeatureColumns
	}
	return c.FeatureColumns
}

// Runner coordinates the E2E batch run.
type Runner struct {
	sessionStore       storage.SessionStore
	featureVectorStore storage.FeatureVectorStore
	predictionStore    storage.PredictionStore
	modelStore         storage.ModelStore
	clf                classifier.Classifier
	verbose            bool
	clock              func() time.Time
}

// Options for creating a Runner.
type Options struct {
	// Required stores
	SessionStore       storage.SessionStore
	FeatureVectorStore storage.FeatureVectorStore
	PredictionStore    storage.PredictionStore
	ModelStore         storage.ModelStore

	// Classifier implementation; nil means the default logistic regression.
	Classifier classifier.Classifier

	Verbose bool
}

// New creates a new Runner.
func New(opts Options) *Runner {
	clf := opts.Classifier
	if clf == nil {
		clf = classifier.NewLogisticRegression()
	}
	return &Runner{
		sessionStore:       opts.SessionStore,
		featureVectorStore: opts.FeatureVectorStore,
		predictionStore:    opts.PredictionStore,
		modelStore:         opts.ModelStore,
		clf:                clf,
		verbose:            opts.Verbose,
		clock:              func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// Run executes the full batch run and, when OutputDir is set, writes:
// - REPORT.md
// - ranked_predictions.csv
// - topk_metrics.csv
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*reporting.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schema, err := classifier.NewSchema(cfg.columns())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	report := &reporting.Report{
		GeneratedAt:     r.clock(),
		LabelDefinition: string(cfg.LabelDefinition),
		SchemaHash:      schema.Hash(),
		FeatureColumns:  schema.Columns,
		TrainWindow:     cfg.Windows.Train.String(),
		EvaluateWindow:  cfg.Windows.Evaluate.String(),
		ScoreWindow:     cfg.Windows.Score.String(),
	}

	// Phase 1: Load the full session log
	r.log("Phase 1: Loading sessions...")
	sessions, err := r.sessionStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load sessions) failed: %w", err)
	}
	report.DataSummary.SessionsScanned = len(sessions)
	r.log("  Loaded %d sessions", len(sessions))

	// Phase 2: Aggregate to session grain
	r.log("Phase 2: Aggregating sessions...")
	summaries := aggregate.SummarizeAll(sessions)
	r.log("  Produced %d session summaries", len(summaries))

	// Phase 3: Label visitors over full history
	r.log("Phase 3: Labeling visitors...")
	generator, err := label.NewGenerator(r.sessionStore, cfg.LabelDefinition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	labels, err := generator.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (label visitors) failed: %w", err)
	}
	positives := 0
	for _, l := range labels {
		if l {
			positives++
		}
	}
	report.DataSummary.VisitorsLabeled = len(labels)
	report.DataSummary.PositiveVisitors = positives
	r.log("  Labeled %d visitors (%d positive)", len(labels), positives)

	// Phase 4: Build the labeled feature table per window
	r.log("Phase 4: Building feature tables...")
	trainBuild := feature.Build(summaries, labels, cfg.Windows.Train)
	evalBuild := feature.Build(summaries, labels, cfg.Windows.Evaluate)
	scoreBuild := feature.Build(summaries, labels, cfg.Windows.Score)

	report.DataSummary.TrainVectors = len(trainBuild.Vectors)
	report.DataSummary.EvaluateVectors = len(evalBuild.Vectors)
	report.DataSummary.ScoreVectors = len(scoreBuild.Vectors)
	// Every Build call scans the same summaries, so the non-first count is
	// identical across windows; dropped-label counts are window-specific.
	report.DataSummary.SkippedNonFirst = trainBuild.SkippedNonFirst
	report.DataSummary.DroppedNoLabel = trainBuild.DroppedNoLabel + evalBuild.DroppedNoLabel + scoreBuild.DroppedNoLabel
	r.log("  train=%d evaluate=%d score=%d vectors",
		len(trainBuild.Vectors), len(evalBuild.Vectors), len(scoreBuild.Vectors))

	if report.DataSummary.DroppedNoLabel > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d first-visit sessions dropped: visitor had no computable label", report.DataSummary.DroppedNoLabel))
	}

	if err := r.persistVectors(ctx, trainBuild.Vectors, evalBuild.Vectors, scoreBuild.Vectors); err != nil {
		return nil, fmt.Errorf("phase 4 (persist feature table) failed: %w", err)
	}

	if len(trainBuild.Vectors) == 0 {
		return nil, fmt.Errorf("%w: train window %s", ErrEmptyTrainPartition, cfg.Windows.Train)
	}

	// Phase 5: Train and persist the model artifact
	r.log("Phase 5: Training classifier...")
	model, err := r.clf.Train(ctx, trainBuild.Vectors, schema)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (train) failed: %w", err)
	}
	modelID := idhash.ComputeModelID(schema.Hash(),
		cfg.Windows.Train.Start.Format("2006-01-02"),
		cfg.Windows.Train.End.Format("2006-01-02"))
	report.ModelID = modelID
	if err := r.persistModel(ctx, modelID, schema, model); err != nil {
		return nil, fmt.Errorf("phase 5 (persist model) failed: %w", err)
	}
	r.log("  Trained model %s", modelID)

	// Phase 6: Evaluate on the held-out window
	if len(evalBuild.Vectors) == 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("evaluate window %s produced no feature vectors; evaluation skipped", cfg.Windows.Evaluate))
		r.log("Phase 6: Skipping evaluation (empty partition)")
	} else {
		r.log("Phase 6: Evaluating...")
		evaluation, err := evaluate.NewEvaluator(r.clf).Evaluate(ctx, model, evalBuild.Vectors, schema)
		if err != nil {
			return nil, fmt.Errorf("phase 6 (evaluate) failed: %w", err)
		}
		report.Evaluation = evaluation
		if evaluation.Defined {
			r.log("  ROC-AUC %.4f (%s)", evaluation.ROCAUC, evaluation.Bucket)
		} else {
			report.Warnings = append(report.Warnings,
				"evaluate partition contains a single class; ROC-AUC is undefined")
			r.log("  ROC-AUC undefined (single class)")
		}
	}

	// Phase 7: Rank the score window and compute business metrics
	if len(scoreBuild.Vectors) == 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("score window %s produced no feature vectors; ranking skipped", cfg.Windows.Score))
		r.log("Phase 7: Skipping ranking (empty partition)")
	} else {
		r.log("Phase 7: Ranking score partition...")
		predictions, topK, err := r.runRanking(ctx, model, modelID, scoreBuild.Vectors, schema, cfg)
		if err != nil {
			return nil, fmt.Errorf("phase 7 (rank) failed: %w", err)
		}
		report.DataSummary.RankedPredictions = len(predictions)
		report.TopK = topK
		r.log("  Ranked %d sessions, precision@%d=%.4f lift=%.4f",
			len(predictions), topK.K, topK.PrecisionAtK, topK.LiftAtK)

		if err := r.writeOutputs(cfg.OutputDir, report, predictions, topK); err != nil {
			return nil, fmt.Errorf("write outputs: %w", err)
		}
		return report, nil
	}

	if err := r.writeOutputs(cfg.OutputDir, report, nil, nil); err != nil {
		return nil, fmt.Errorf("write outputs: %w", err)
	}
	return report, nil
}

// persistVectors stores all built vectors. Reruns over the same snapshot
// rebuild identical rows, so duplicate keys are treated as already-persisted.
func (r *Runner) persistVectors(ctx context.Context, partitions ...[]*domain.FeatureVector) error {
	for _, vectors := range partitions {
		if len(vectors) == 0 {
			continue
		}
		if err := r.featureVectorStore.InsertBulk(ctx, vectors); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return err
		}
	}
	return nil
}

// persistModel serializes the trained model into the artifact store. A rerun
// over the same schema and train window yields the same model id; the
// existing artifact is kept.
func (r *Runner) persistModel(ctx context.Context, modelID string, schema classifier.Schema, model *classifier.Model) error {
	payload, err := model.Marshal()
	if err != nil {
		return err
	}
	artifact := &storage.ModelArtifact{
		ModelID:    modelID,
		SchemaHash: schema.Hash(),
		TrainedAt:  r.clock(),
		Payload:    payload,
	}
	if err := r.modelStore.Insert(ctx, artifact); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return err
	}
	return nil
}

// runRanking scores and ranks the score partition, persists the prediction
// table, and computes the top-K metrics against the known labels.
func (r *Runner) runRanking(ctx context.Context, model *classifier.Model, modelID string, vectors []*domain.FeatureVector, schema classifier.Schema, cfg RunConfig) ([]*domain.Prediction, *rank.TopKReport, error) {
	ranker := rank.NewRanker(r.clf, cfg.Threshold)
	predictions, err := ranker.Rank(ctx, model, modelID, vectors, schema)
	if err != nil {
		return nil, nil, err
	}

	if err := r.predictionStore.InsertBulk(ctx, predictions); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, nil, fmt.Errorf("persist predictions: %w", err)
	}

	trueLabels := make(map[string]bool, len(vectors))
	for _, v := range vectors {
		trueLabels[v.SessionID] = v.Label
	}
	topK, err := rank.ComputeTopK(predictions, trueLabels, cfg.TopKFraction)
	if err != nil {
		return nil, nil, err
	}
	return predictions, topK, nil
}

// writeOutputs renders the report and CSV tables into the output directory.
// A blank directory disables file output; the report is still returned.
func (r *Runner) writeOutputs(outputDir string, report *reporting.Report, predictions []*domain.Prediction, topK *rank.TopKReport) error {
	if outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	reportMD := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(outputDir, ReportFileName), []byte(reportMD), 0644); err != nil {
		return err
	}

	if predictions != nil {
		predCSV, err := reporting.RenderPredictionsCSV(predictions)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outputDir, PredictionsFileName), []byte(predCSV), 0644); err != nil {
			return err
		}
	}

	if topK != nil {
		topKCSV, err := reporting.RenderTopKCSV(topK)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outputDir, TopKFileName), []byte(topKCSV), 0644); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) log(format string, args ...interface{}) {
	if r.verbose {
		log.Printf("[pipeline] "+format, args...)
	}
}
