package commands

import (
	"context"
	"errors"
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

func newValidateCommand() *cobra.Command {
	var (
		planPath        string
		studyName       string
		trainPath       string
		holdoutPath     string
		targetColumn    string
		positiveLabel   string
		idColumn        string
		featureColumns  []string
		runs            int
		workers         int
		classifierName  string
		trees           int
		maxDepth        int
		weighted        bool
		outputPath      string
		format          string
		logDir          string
		logFormat       string
		predictionsPath string
		importancesPath string
		cacheEnabled    bool
		cacheDir        string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a classifier against a held-out cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := &study.Plan{}
			if planPath != "" {
				loaded, err := study.Load(planPath)
				if err != nil {
					return err
				}
				plan = loaded
			}
			planHoldout := ""
			planRuns := 0
			planWeighted := false
			if plan.Validation != nil {
				planHoldout = plan.Validation.Dataset
				planRuns = plan.Validation.Runs
				planWeighted = plan.Validation.Weighted
			}

			trainResolved := resolveString(trainPath, resolveString(plan.Dataset, appConfig.Dataset))
			if trainResolved == "" {
				return errors.New("train dataset path is required")
			}
			holdoutResolved := resolveString(holdoutPath, planHoldout)
			if holdoutResolved == "" {
				return errors.New("holdout dataset path is required")
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
			runsResolved := resolveInt(runs, resolveInt(planRuns, appConfig.Runs, 0), 5)
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

			opts := dataset.Options{
				Target:   targetResolved,
				Positive: positiveResolved,
				ID:       idResolved,
				Features: featuresResolved,
			}
			train, err := dataset.Load(trainResolved, opts)
			if err != nil {
				return err
			}
			// Holdout columns must line up with the training columns even
			// when the feature list was inferred from the training file.
			opts.Features = train.Features
			holdout, err := dataset.Load(holdoutResolved, opts)
			if err != nil {
				return err
			}
			logDatasetSummary("train", train)
			logDatasetSummary("holdout", holdout)

			studyResolved := resolveString(studyName, plan.Study)
			if studyResolved == "" {
				studyResolved = train.Name
			}

			progress := newProgressBar(progressWriter(cmd), runsResolved)
			progress.Update(0)

			val := core.Validator{
				Train:      train,
				Holdout:    holdout,
				Classifier: cls,
				Runs:       runsResolved,
				Workers:    workerCount,
				Weighted:   weighted || planWeighted,
				Logger:     logger,
				Study:      studyResolved,
				Metadata:   plan.Metadata,
				Progress: func(completed, total int) {
					progress.Update(completed)
				},
			}

			report, err := val.Run(context.Background())
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

			rep, err := buildValidationReporter(formatResolved, writer)
			if err != nil {
				return err
			}
			if err := rep.ReportValidation(report); err != nil {
				return err
			}

			if predictionsPath != "" {
				err := writeExport(predictionsPath, func(w io.Writer) error {
					return reporter.WriteValidationPredictions(w, report)
				})
				if err != nil {
					return err
				}
			}
			if importancesPath != "" {
				err := writeExport(importancesPath, func(w io.Writer) error {
					return reporter.WriteImportances(w, report.Importances)
				})
				if err != nil {
					return err
				}
			}

			if logFormatResolved != "none" {
				if logDirResolved == "" {
					logDirResolved = "./studies"
				}
				if err := writeStudyLog(logFormatResolved, logDirResolved, studylog.FromValidation(report, train, holdout)); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "study plan file (YAML)")
	cmd.Flags().StringVar(&studyName, "study", "", "study name used in reports and log file names")
	cmd.Flags().StringVar(&trainPath, "train", "", "path to the training cohort file (CSV or TSV)")
	cmd.Flags().StringVar(&holdoutPath, "holdout", "", "path to the held-out cohort file (CSV or TSV)")
	cmd.Flags().StringVar(&targetColumn, "target", "", "outcome column name")
	cmd.Flags().StringVar(&positiveLabel, "positive", "", "outcome level treated as positive")
	cmd.Flags().StringVar(&idColumn, "id", "", "sample identifier column")
	cmd.Flags().StringSliceVar(&featureColumns, "features", nil, "feature columns (default: every non-target column)")
	cmd.Flags().IntVar(&runs, "runs", 0, "number of validation runs")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parallel fold workers for threshold derivation")
	cmd.Flags().StringVar(&classifierName, "classifier", "", "classifier name (forest, tree, logit, stub)")
	cmd.Flags().IntVar(&trees, "trees", 0, "number of trees for the forest classifier")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	cmd.Flags().BoolVar(&weighted, "weighted", false, "weight training samples inversely to class frequency")
	cmd.Flags().StringVar(&outputPath, "output", "", "report file path")
	cmd.Flags().StringVar(&format, "format", "", "report format (table, json, markdown, csv, html)")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory for study logs")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "study log format (study, json, none)")
	cmd.Flags().StringVar(&predictionsPath, "predictions", "", "write per-run predictions to this path (CSV)")
	cmd.Flags().StringVar(&importancesPath, "importances", "", "write feature importances to this path (CSV)")
	cmd.Flags().BoolVar(&cacheEnabled, "cache", false, "cache trained models on disk")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "model cache directory")

	return cmd
}
