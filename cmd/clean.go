package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/pipeline"
)

var (
	cleanProfiles string
	cleanOut      string
	cleanProgress bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <records.json>",
	Short: "Clean, enrich and score merged contact records",
	Long:  "Removes title and phone contamination, splits multi-office locations, checks phone against location, classifies email domains and rescores every record. Profile data, when supplied, is preferred over the scraped text.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "clean", false)
		if err != nil {
			return err
		}
		defer env.Close()

		var records []model.ContactRecord
		if err := readJSONFile(args[0], &records); err != nil {
			return err
		}

		profiles, err := loadProfiles(cleanProfiles)
		if err != nil {
			return err
		}

		var progress pipeline.ProgressFunc
		if cleanProgress {
			progress = func(p pipeline.Progress) {
				fmt.Fprintf(os.Stderr, "cleaned %d/%d\n", p.Done, p.Total)
			}
		}

		cleaned, rep, err := env.Pipeline.CleanBatch(ctx, records, profiles, progress)
		if err != nil {
			return err
		}

		return writeJSON(cleanOut, cleanOutput{
			Records: cleaned,
			Stats:   env.Pipeline.Stats(cleaned),
			Clean:   rep,
		})
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanProfiles, "profiles", "", "JSON file mapping profile URLs or emails to profile data")
	cleanCmd.Flags().StringVar(&cleanOut, "out", "", "output file (default: stdout)")
	cleanCmd.Flags().BoolVar(&cleanProgress, "progress", false, "print progress to stderr")
	rootCmd.AddCommand(cleanCmd)
}

type cleanOutput struct {
	Records []model.ContactRecord `json:"records"`
	Stats   model.BatchStats      `json:"stats"`
	Clean   pipeline.CleanReport  `json:"clean"`
}
