package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/model"
)

var mergeOut string

var mergeCmd = &cobra.Command{
	Use:   "merge <records.json> <records.json>...",
	Short: "Merge contact record lists from different sources",
	Long:  "Folds the record lists left to right. Records are matched by email, phone, domain plus name, then name; earlier lists win field conflicts.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context(), "merge", false)
		if err != nil {
			return err
		}
		defer env.Close()

		lists := make([][]model.ContactRecord, 0, len(args))
		for _, path := range args {
			var recs []model.ContactRecord
			if err := readJSONFile(path, &recs); err != nil {
				return err
			}
			lists = append(lists, recs)
		}

		res := env.Pipeline.Reconcile(lists...)
		counts := res.Counts()
		fields := make([]zap.Field, 0, len(counts)+2)
		fields = append(fields, zap.Int("records", len(res.Records)), zap.Int("dropped", res.Dropped))
		for k, n := range counts {
			fields = append(fields, zap.Int("match_"+string(k), n))
		}
		zap.L().Info("merge complete", fields...)

		return writeJSON(mergeOut, res)
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeOut, "out", "", "output file (default: stdout)")
	rootCmd.AddCommand(mergeCmd)
}
