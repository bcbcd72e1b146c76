package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/ocr"
	"github.com/sells-group/roster-cli/internal/pipeline"
)

var (
	runSelector string
	runSheet    string
	runProfiles string
	runLabel    string
	runOut      string
)

var runCmd = &cobra.Command{
	Use:   "run <input>...",
	Short: "Run the full pipeline over several sources and store the result",
	Long:  "Extracts every input as its own source, merges the sources in argument order, cleans and scores the merged records, and saves them as a new run.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "run", true)
		if err != nil {
			return err
		}
		defer env.Close()

		opts, err := newSourceOptions(runSelector, "", runSheet)
		if err != nil {
			return err
		}
		opts.Coord = env.Pipeline.Coordinate()
		opts.Words = ocr.NewExtractor(cfg.Extract)

		sources, err := loadSources(ctx, args, opts)
		if err != nil {
			return err
		}

		label := runLabel
		if label == "" {
			label = strings.Join(args, ",")
		}
		return executeRun(ctx, env, label, sources, runProfiles, runOut)
	},
}

func init() {
	runCmd.Flags().StringVar(&runSelector, "selector", "", "CSS selector matching one directory card in HTML inputs")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	runCmd.Flags().StringVar(&runProfiles, "profiles", "", "JSON file mapping profile URLs or emails to profile data")
	runCmd.Flags().StringVar(&runLabel, "label", "", "run label (default: the input list)")
	runCmd.Flags().StringVar(&runOut, "out", "", "also write the run output as JSON to this file")
	rootCmd.AddCommand(runCmd)
}

// executeRun runs the pipeline, persists the output and reports the run.
func executeRun(ctx context.Context, env *pipelineEnv, label string, sources []pipeline.Source, profilesPath, outPath string) error {
	profiles, err := loadProfiles(profilesPath)
	if err != nil {
		return err
	}

	out, err := env.Pipeline.Run(ctx, sources, profiles, nil)
	if err != nil {
		return eris.Wrap(err, "run pipeline")
	}

	run, err := persistRun(ctx, env.Store, label, out)
	if err != nil {
		return err
	}

	zap.L().Info("run complete",
		zap.String("run_id", run.ID),
		zap.String("label", label),
		zap.Int("records", out.Stats.Total),
		zap.Int("skipped", out.Skipped),
	)
	fmt.Fprintf(os.Stderr, "run %s: %d records (%d high, %d medium, %d low)\n",
		run.ID, out.Stats.Total,
		out.Stats.ConfidenceDistribution[model.ConfidenceHigh],
		out.Stats.ConfidenceDistribution[model.ConfidenceMedium],
		out.Stats.ConfidenceDistribution[model.ConfidenceLow],
	)

	if outPath != "" {
		return writeJSON(outPath, out)
	}
	return nil
}
