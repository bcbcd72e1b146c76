package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/fetcher"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/ocr"
	"github.com/sells-group/roster-cli/internal/pipeline"
)

// maxPageBytes caps a fetched directory page.
const maxPageBytes = 20 << 20

// sourceOptions controls how command-line inputs become content units.
type sourceOptions struct {
	Selector string        // card selector for HTML pages; empty treats the page as one card
	Channel  model.Channel // overrides the channel inferred from the input
	Roster   fetcher.RosterOptions
	Coord    extract.Coordinate
	Words    ocr.WordExtractor // reads PDF inputs
}

// unitsFile is the JSON input format: either prepared content units or a
// positioned word list from PDF text or OCR.
type unitsFile struct {
	Channel model.Channel       `json:"channel"`
	Units   []model.ContentUnit `json:"units"`
	Words   []model.Word        `json:"words"`
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isRoster(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt", ".xlsx":
		return true
	}
	return false
}

// loadSource turns one input (URL, HTML file, PDF, roster spreadsheet or
// JSON units file) into a pipeline source.
func loadSource(ctx context.Context, f fetcher.Fetcher, input string, opts sourceOptions) (pipeline.Source, error) {
	var (
		src pipeline.Source
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(input)); {
	case isURL(input):
		var page string
		page, err = fetcher.FetchPage(ctx, f, input, maxPageBytes)
		if err == nil {
			src, err = htmlSource(input, page, input, opts.Selector)
		}
	case ext == ".html" || ext == ".htm":
		var data []byte
		data, err = os.ReadFile(input)
		if err == nil {
			src, err = htmlSource(filepath.Base(input), string(data), "", opts.Selector)
		}
	case isRoster(input):
		src.Channel = model.ChannelSpreadsheet
		src.Units, err = fetcher.ReadRoster(ctx, input, opts.Roster)
	case ext == ".json":
		src, err = jsonSource(input, opts.Coord)
	case ext == ".pdf":
		src, err = pdfSource(ctx, input, opts)
	default:
		return src, eris.Errorf("unsupported input %q", input)
	}
	if err != nil {
		return src, eris.Wrapf(err, "load %s", input)
	}

	if opts.Channel != "" {
		src.Channel = opts.Channel
	}
	return src, nil
}

func htmlSource(name, page, pageURL, selector string) (pipeline.Source, error) {
	src := pipeline.Source{Channel: model.ChannelHTML}
	if selector == "" {
		u, err := extract.UnitFromHTML(name, page, pageURL)
		if err != nil {
			return src, err
		}
		src.Units = []model.ContentUnit{u}
		return src, nil
	}

	units, err := extract.UnitsFromHTML(page, selector, pageURL)
	if err != nil {
		return src, err
	}
	for i := range units {
		units[i].ID = fmt.Sprintf("%s#%s", name, units[i].ID)
	}
	src.Units = units
	return src, nil
}

func jsonSource(path string, coord extract.Coordinate) (pipeline.Source, error) {
	var uf unitsFile
	if err := readJSONFile(path, &uf); err != nil {
		return pipeline.Source{}, err
	}

	src := pipeline.Source{Channel: uf.Channel, Units: uf.Units}
	if len(uf.Words) > 0 {
		src.Units = append(src.Units, extract.UnitsFromWords(filepath.Base(path), uf.Words, coord)...)
		if src.Channel == "" {
			src.Channel = model.ChannelPDF
		}
	}
	if src.Channel == "" {
		src.Channel = model.ChannelHTML
	}
	return src, nil
}

func pdfSource(ctx context.Context, path string, opts sourceOptions) (pipeline.Source, error) {
	if opts.Words == nil {
		return pipeline.Source{}, eris.New("no PDF word extractor configured")
	}
	words, err := opts.Words.ExtractWords(ctx, path)
	if err != nil {
		return pipeline.Source{}, err
	}
	return pipeline.Source{
		Channel: model.ChannelPDF,
		Units:   extract.UnitsFromWords(filepath.Base(path), words, opts.Coord),
	}, nil
}

// loadSources loads every input in order.
func loadSources(ctx context.Context, inputs []string, opts sourceOptions) ([]pipeline.Source, error) {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	sources := make([]pipeline.Source, 0, len(inputs))
	for _, in := range inputs {
		src, err := loadSource(ctx, f, in, opts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
