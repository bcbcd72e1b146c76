package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roster-cli/internal/fetcher"
	"github.com/sells-group/roster-cli/internal/pipeline"
)

var (
	importFiles    []string
	importSheet    string
	importProfiles string
	importLabel    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import roster spreadsheets into the contact store",
	Long:  "Reads CSV, TSV or XLSX rosters, maps their header columns to contact fields, and runs the rows through extraction, merge and cleaning as spreadsheet sources.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "import", true)
		if err != nil {
			return err
		}
		defer env.Close()

		opts, err := newSourceOptions("", "", importSheet)
		if err != nil {
			return err
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		sources := make([]pipeline.Source, 0, len(importFiles))
		for _, path := range importFiles {
			if isURL(path) || !isRoster(path) {
				return eris.Errorf("import: %s is not a roster spreadsheet", path)
			}
			src, err := loadSource(ctx, f, path, opts)
			if err != nil {
				return eris.Wrap(err, "import roster")
			}
			sources = append(sources, src)
		}

		label := importLabel
		if label == "" {
			label = "import:" + strings.Join(importFiles, ",")
		}
		return executeRun(ctx, env, label, sources, importProfiles, "")
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importFiles, "file", nil, "roster file (CSV, TSV or XLSX); repeatable (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	importCmd.Flags().StringVar(&importProfiles, "profiles", "", "JSON file mapping profile URLs or emails to profile data")
	importCmd.Flags().StringVar(&importLabel, "label", "", "run label (default: the file list)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
