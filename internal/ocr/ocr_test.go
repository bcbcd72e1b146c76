package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/model"
)

const bboxOutput = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>directory</title></head>
<body>
<doc>
  <page width="612.000000" height="792.000000">
    <flow><block xMin="72.0" yMin="100.0" xMax="200.0" yMax="140.0">
      <line xMin="72.0" yMin="100.0" xMax="160.0" yMax="112.0">
        <word xMin="72.000000" yMin="100.000000" xMax="98.500000" yMax="112.000000">Jane</word>
        <word xMin="101.000000" yMin="100.000000" xMax="130.250000" yMax="112.000000">Doe</word>
      </line>
      <line xMin="72.0" yMin="128.0" xMax="200.0" yMax="140.0">
        <word xMin="72.000000" yMin="128.000000" xMax="200.000000" yMax="140.000000">jdoe@acme.com</word>
      </line>
    </block></flow>
  </page>
  <page width="612.000000" height="792.000000">
    <flow><block><line>
      <word xMin="72.000000" yMin="90.000000" xMax="110.000000" yMax="102.000000">Partner</word>
    </line></block></flow>
  </page>
</doc>
</body>
</html>`

func TestNewExtractor(t *testing.T) {
	ext := NewExtractor(config.ExtractConfig{PdfToTextPath: "/usr/bin/pdftotext"})
	require.IsType(t, &PdfToText{}, ext)
	assert.Equal(t, "/usr/bin/pdftotext", ext.(*PdfToText).binPath)
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("")
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext")
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestParseBBox(t *testing.T) {
	words, err := ParseBBox(strings.NewReader(bboxOutput))
	require.NoError(t, err)
	require.Len(t, words, 4)

	assert.Equal(t, model.Word{Text: "Jane", X0: 72, Y0: 100, X1: 98.5, Y1: 112, Page: 1}, words[0])
	assert.Equal(t, "Doe", words[1].Text)
	assert.InDelta(t, 130.25, words[1].X1, 0.001)
	assert.Equal(t, "jdoe@acme.com", words[2].Text)
	assert.Equal(t, 1, words[2].Page)
	assert.Equal(t, model.Word{Text: "Partner", X0: 72, Y0: 90, X1: 110, Y1: 102, Page: 2}, words[3])
}

func TestParseBBox_Empty(t *testing.T) {
	words, err := ParseBBox(strings.NewReader("<html><body><doc></doc></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestParseBBox_BadCoordinate(t *testing.T) {
	_, err := ParseBBox(strings.NewReader(`<doc><page><word xMin="a" yMin="1" xMax="2" yMax="3">Jane</word></page></doc>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xmin")

	_, err = ParseBBox(strings.NewReader(`<doc><page><word xMin="1">Jane</word></page></doc>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no ymin")
}

func TestPdfToText_ExtractWords(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for pdftotext")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "bbox.html")
	require.NoError(t, os.WriteFile(out, []byte(bboxOutput), 0o644))

	bin := filepath.Join(dir, "pdftotext")
	script := "#!/bin/sh\ncat " + out + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	words, err := NewPdfToText(bin).ExtractWords(context.Background(), filepath.Join(dir, "dir.pdf"))
	require.NoError(t, err)
	assert.Len(t, words, 4)
}

func TestPdfToText_ExtractWords_Failure(t *testing.T) {
	_, err := NewPdfToText(filepath.Join(t.TempDir(), "missing-bin")).ExtractWords(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}
