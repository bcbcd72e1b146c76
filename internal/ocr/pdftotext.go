package ocr

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/model"
)

// PdfToText extracts words from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractWords runs pdftotext -bbox-layout on the given PDF and parses the
// word boxes from its XHTML output.
func (p *PdfToText) ExtractWords(ctx context.Context, pdfPath string) ([]model.Word, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-bbox-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "ocr: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return ParseBBox(&stdout)
}

// ParseBBox reads pdftotext bounding-box XHTML. Pages are numbered from 1
// in document order.
func ParseBBox(r io.Reader) ([]model.Word, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: parse bbox output")
	}

	var (
		words  []model.Word
		badBox error
	)
	doc.Find("page").Each(func(i int, page *goquery.Selection) {
		page.Find("word").Each(func(_ int, w *goquery.Selection) {
			text := strings.TrimSpace(w.Text())
			if text == "" || badBox != nil {
				return
			}
			// The HTML parser lowercases attribute names.
			var box [4]float64
			for j, attr := range []string{"xmin", "ymin", "xmax", "ymax"} {
				v, ok := w.Attr(attr)
				if !ok {
					badBox = eris.Errorf("ocr: word %q has no %s", text, attr)
					return
				}
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					badBox = eris.Wrapf(err, "ocr: word %q %s", text, attr)
					return
				}
				box[j] = f
			}
			words = append(words, model.Word{
				Text: text,
				X0:   box[0],
				Y0:   box[1],
				X1:   box[2],
				Y1:   box[3],
				Page: i + 1,
			})
		})
	})
	if badBox != nil {
		return nil, badBox
	}
	return words, nil
}
