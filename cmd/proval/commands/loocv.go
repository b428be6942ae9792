package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/ahad1361/proteoimic-validation/pkg/cache"
	"github.com/ahad1361/proteoimic-validation/pkg/classifier"
	"github.com/ahad1361/proteoimic-validation/pkg/core"
	"github.com/ahad1361/proteoimic-validation/pkg/dataset"
	"github.com/ahad1361/proteoimic-validation/pkg/reporter"
	"github.com/ahad1361/proteoimic-validation/pkg/study"
	"github.com/ahad1361/proteoimic-validation/pkg/studylog"

	"github.com/spf13/cobra"
)

func newLoocvCommand() *cobra.Command {
	var (
		planPath        string
		studyName       string
		datasetPath     string
		targetColumn    string
		positiveLabel   string
		idColumn        string
		featureColumns  []string
		repeats         int
		workers         int
		classifierName  string
		trees           int
		maxDepth        int
		outputPath      string
		format          string
		logDir          string
		logFormat       string
		plotPath        string
		predictionsPath string
		rocDataPath     string
		cacheEnabled    bool
		cacheDir        string
	)

	cmd := &cobra.Command{
		Use:   "loocv",
		Short: "Run repeated leave-one-out cross-validation",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := &study.Plan{}
			if planPath != "" {
				loaded, err := study.Load(planPath)
				if err != nil {
					return err
				}
				plan = loaded
			}

			path := resolveString(datasetPath, resolveString(plan.Dataset, appConfig.Dataset))
			if path == "" {
				return errors.New("dataset path is required")
			}
			targetResolved := resolveString(targetColumn, resolveString(plan.Target, appConfig.Target))
			if targetResolved == "" {
				return errors.New("target column is required")
			}
			positiveResolved := resolveString(positiveLabel, resolveString(plan.Positive, appConfig.Positive))
			if positiveResolved == "" {
				return errors.New("positive label is required")
			}
			idResolved := resolveString(idColumn, resolveString(plan.ID, appConfig.ID))
			featuresResolved := featureColumns
			if len(featuresResolved) == 0 {
				featuresResolved = plan.Features
			}
			if len(featuresResolved) == 0 {
				featuresResolved = appConfig.Features
			}
			repeatsResolved := resolveInt(repeats, resolveInt(plan.Repeats, appConfig.Repeats, 0), 10)
			workerCount := resolveInt(workers, resolveInt(plan.Workers, appConfig.Workers, 0), runtime.NumCPU())
			formatResolved := resolveString(format, appConfig.Format)
			if formatResolved == "" {
				formatResolved = "table"
			}
			outputResolved := resolveString(outputPath, appConfig.Output)
			logDirResolved := resolveString(logDir, appConfig.LogDir)
			logFormatResolved := resolveString(logFormat, appConfig.LogFormat)
			if logFormatResolved == "" {
				logFormatResolved = "study"
			}

			classifierCfg := plan.Classifier
			if classifierCfg.Name == "" && appConfig.Classifier.Name != "" {
				classifierCfg = appConfig.Classifier
			}
			classifierCfg.Name = resolveString(classifierName, classifierCfg.Name)
			if trees > 0 {
				classifierCfg.Trees = trees
			}
			if maxDepth > 0 {
				classifierCfg.MaxDepth = maxDepth
			}

			cls, err := classifier.New(classifierCfg)
			if err != nil {
				return err
			}
			if cacheEnabled || appConfig.Cache.Enabled {
				store, err := cache.New(
					resolveString(cacheDir, appConfig.Cache.Dir),
					time.Duration(appConfig.Cache.TTLHours)*time.Hour,
				)
				if err != nil {
					return err
				}
				cls = classifier.Cached{Classifier: cls, Cache: store}
			}

			ds, err := dataset.Load(path, dataset.Options{
				Target:   targetResolved,
				Positive: positiveResolved,
				ID:       idResolved,
				Features: featuresResolved,
			})
			if err != nil {
				return err
			}
			logDatasetSummary("derivation", ds)

			studyResolved := resolveString(studyName, plan.Study)
			if studyResolved == "" {
				studyResolved = ds.Name
			}

			progress := newProgressBar(progressWriter(cmd), repeatsResolved*ds.Len())
			progress.Update(0)

			eval := core.Evaluator{
				Dataset:    ds,
				Classifier: cls,
				Repeats:    repeatsResolved,
				Workers:    workerCount,
				Logger:     logger,
				Study:      studyResolved,
				Metadata:   plan.Metadata,
				Progress: func(completed, total int) {
					progress.Update(completed)
				},
			}

			report, err := eval.Run(context.Background())
			if err != nil {
				return err
			}
			if planPath != "" {
				if report.Metadata == nil {
					report.Metadata = map[string]string{}
				}
				report.Metadata["plan"] = planPath
			}

			writer := os.Stdout
			if outputResolved != "" {
				file, err := os.Create(outputResolved)
				if err != nil {
					return err
				}
				defer file.Close()
				writer = file
			}

			rep, err := buildReporter(formatResolved, writer)
			if err != nil {
				return err
			}
			if err := rep.Report(report); err != nil {
				return err
			}

			if predictionsPath != "" {
				err := writeExport(predictionsPath, func(w io.Writer) error {
					return reporter.WritePredictions(w, report)
				})
				if err != nil {
					return err
				}
			}
			if rocDataPath != "" {
				err := writeExport(rocDataPath, func(w io.Writer) error {
					return reporter.WriteROC(w, report.MeanROC)
				})
				if err != nil {
					return err
				}
			}
			if plotPath != "" {
				title := fmt.Sprintf("%s (%s)", studyResolved, report.Classifier)
				if err := reporter.PlotROC(report.MeanROC, title, plotPath); err != nil {
					return err
				}
			}

			if logFormatResolved != "none" {
				if logDirResolved == "" {
					logDirResolved = "./studies"
				}
				if err := writeStudyLog(logFormatResolved, logDirResolved, studylog.FromReport(report, ds)); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "study plan file (YAML)")
	cmd.Flags().StringVar(&studyName, "study", "", "study name used in reports and log file names")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "path to cohort file (CSV or TSV)")
	cmd.Flags().StringVar(&targetColumn, "target", "", "outcome column name")
	cmd.Flags().StringVar(&positiveLabel, "positive", "", "outcome level treated as positive")
	cmd.Flags().StringVar(&idColumn, "id", "", "sample identifier column")
	cmd.Flags().StringSliceVar(&featureColumns, "features", nil, "feature columns (default: every non-target column)")
	cmd.Flags().IntVar(&repeats, "repeats", 0, "number of LOOCV repeats")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parallel fold workers")
	cmd.Flags().StringVar(&classifierName, "classifier", "", "classifier name (forest, tree, logit, stub)")
	cmd.Flags().IntVar(&trees, "trees", 0, "number of trees for the forest classifier")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	cmd.Flags().StringVar(&outputPath, "output", "", "report file path")
	cmd.Flags().StringVar(&format, "format", "", "report format (table, json, markdown, csv, html)")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory for study logs")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "study log format (study, json, none)")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write the mean ROC plot to this path (PNG)")
	cmd.Flags().StringVar(&predictionsPath, "predictions", "", "write per-fold predictions to this path (CSV)")
	cmd.Flags().StringVar(&rocDataPath, "roc-data", "", "write the mean ROC curve to this path (CSV)")
	cmd.Flags().BoolVar(&cacheEnabled, "cache", false, "cache trained models on disk")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "model cache directory")

	return cmd
}
