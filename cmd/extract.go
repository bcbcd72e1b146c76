package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/assemble"
	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/fetcher"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/ocr"
)

var (
	extractSelector string
	extractChannel  string
	extractSheet    string
	extractOut      string
	extractReport   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <input>...",
	Short: "Extract contact records from pages, word lists or rosters",
	Long:  "Turns each input (URL, HTML file, CSV/TSV/XLSX roster or JSON units file) into content units and assembles one scored record per person. No cross-source merge is done.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "extract", false)
		if err != nil {
			return err
		}
		defer env.Close()

		opts, err := newSourceOptions(extractSelector, extractChannel, extractSheet)
		if err != nil {
			return err
		}
		opts.Coord = env.Pipeline.Coordinate()
		opts.Words = ocr.NewExtractor(cfg.Extract)

		sources, err := loadSources(ctx, args, opts)
		if err != nil {
			return err
		}

		out := extractOutput{Records: []model.ContactRecord{}}
		for _, src := range sources {
			recs, reps := env.Pipeline.ProcessUnits(src.Units, src.Channel)
			out.Records = append(out.Records, recs...)
			out.Skipped += len(src.Units) - len(recs)
			if extractReport {
				for _, rep := range reps {
					out.Reports = append(out.Reports, newUnitReport(rep))
				}
			}
		}

		zap.L().Info("extract complete",
			zap.Int("inputs", len(args)),
			zap.Int("records", len(out.Records)),
			zap.Int("skipped", out.Skipped),
		)
		return writeJSON(extractOut, out)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSelector, "selector", "", "CSS selector matching one directory card (default: whole page is one card)")
	extractCmd.Flags().StringVar(&extractChannel, "channel", "", "override the extraction channel (html, pdf, ocr, spreadsheet)")
	extractCmd.Flags().StringVar(&extractSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "output file (default: stdout)")
	extractCmd.Flags().BoolVar(&extractReport, "report", false, "include per-unit candidates, rejections and failures")
	rootCmd.AddCommand(extractCmd)
}

func newSourceOptions(selector, channel, sheet string) (sourceOptions, error) {
	opts := sourceOptions{
		Selector: selector,
		Roster:   fetcher.RosterOptions{SheetName: sheet},
	}
	if channel != "" {
		ch, ok := model.ParseChannel(channel)
		if !ok {
			return opts, eris.Errorf("unknown channel %q", channel)
		}
		opts.Channel = ch
	}
	return opts, nil
}

type extractOutput struct {
	Records []model.ContactRecord `json:"records"`
	Skipped int                   `json:"skipped"`
	Reports []unitReport          `json:"reports,omitempty"`
}

// unitReport is the JSON view of one unit's assembly diagnostics.
type unitReport struct {
	Unit        string                   `json:"unit"`
	NameDerived bool                     `json:"nameDerived,omitempty"`
	Candidates  []extract.CandidateValue `json:"candidates,omitempty"`
	Rejections  []rejectionView          `json:"rejections,omitempty"`
	Failures    []extract.Failure        `json:"failures,omitempty"`
}

type rejectionView struct {
	Field  model.Field `json:"field"`
	Value  string      `json:"value"`
	Reason string      `json:"reason"`
}

func newUnitReport(rep assemble.Report) unitReport {
	ur := unitReport{Unit: rep.UnitID, NameDerived: rep.NameDerived, Failures: rep.Failures()}
	for _, res := range rep.Results {
		ur.Candidates = append(ur.Candidates, res.Candidates...)
	}
	for _, rej := range rep.Rejections() {
		ur.Rejections = append(ur.Rejections, rejectionView{Field: rej.Field, Value: rej.Value, Reason: rej.Reason})
	}
	return ur
}
