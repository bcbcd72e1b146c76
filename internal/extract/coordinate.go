package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/phone"
)

var emailWord = regexp.MustCompile(`[A-Za-z0-9._%+\-']+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// line is a run of words on the same baseline.
type line struct {
	words []model.Word
	cy    float64
}

func (l line) text() string {
	parts := make([]string, len(l.words))
	for i, w := range l.words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// emailAnchors returns the words that carry an email address in reading
// order.
func emailAnchors(words []model.Word) []model.Word {
	var out []model.Word
	for _, w := range words {
		if emailWord.MatchString(w.Text) {
			out = append(out, w)
		}
	}
	sortReading(out)
	return out
}

func sortReading(words []model.Word) {
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Page != words[j].Page {
			return words[i].Page < words[j].Page
		}
		if math.Abs(words[i].CenterY()-words[j].CenterY()) > 0.5 {
			return words[i].CenterY() < words[j].CenterY()
		}
		return words[i].X0 < words[j].X0
	})
}

// groupLines merges words into lines: same line when vertical centers are
// within yTol and the horizontal gap is at most xGap.
func groupLines(words []model.Word, yTol, xGap float64) []line {
	sorted := append([]model.Word(nil), words...)
	sortReading(sorted)

	var lines []line
	for _, w := range sorted {
		placed := false
		for i := range lines {
			l := &lines[i]
			last := l.words[len(l.words)-1]
			if last.Page == w.Page && math.Abs(l.cy-w.CenterY()) <= yTol && w.X0-last.X1 <= xGap {
				l.words = append(l.words, w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, line{words: []model.Word{w}, cy: w.CenterY()})
		}
	}
	return lines
}

// runCoordinate searches the words around the first email anchor: names in
// the region above it, phones in the region below. Position is the vertical
// distance from the anchor, so the closest line ranks first.
func runCoordinate(m Coordinate, words []model.Word, f model.Field) []rawCandidate {
	anchors := emailAnchors(words)
	if len(anchors) == 0 {
		return nil
	}
	anchor := anchors[0]

	if f == model.FieldEmail {
		out := make([]rawCandidate, 0, len(anchors))
		for i, a := range anchors {
			out = append(out, rawCandidate{
				value:    emailWord.FindString(a.Text),
				position: i,
				meta:     coordMeta(a),
			})
		}
		return out
	}

	var region []model.Word
	for _, w := range words {
		if w.Page != anchor.Page || math.Abs(w.CenterX()-anchor.CenterX()) > m.XTolerance {
			continue
		}
		dy := w.CenterY() - anchor.CenterY()
		switch f {
		case model.FieldName:
			if dy < -m.LineYTol && dy >= -m.Above {
				region = append(region, w)
			}
		case model.FieldPhone:
			if dy > m.LineYTol && dy <= m.Below {
				region = append(region, w)
			}
		default:
			return nil
		}
	}

	var out []rawCandidate
	for _, l := range groupLines(region, m.LineYTol, m.LineXGap) {
		dist := int(math.Round(math.Abs(l.cy - anchor.CenterY())))
		txt := l.text()
		switch f {
		case model.FieldName:
			out = append(out, rawCandidate{value: txt, position: dist, meta: coordMeta(l.words[0])})
		case model.FieldPhone:
			for _, pm := range phone.Find(txt) {
				out = append(out, rawCandidate{value: pm.Value, position: dist, meta: coordMeta(l.words[0])})
			}
		}
	}
	return out
}

func coordMeta(w model.Word) map[string]string {
	return map[string]string{
		"page": fmt.Sprintf("%d", w.Page),
		"x":    fmt.Sprintf("%.1f", w.X0),
		"y":    fmt.Sprintf("%.1f", w.Y0),
	}
}

// UnitsFromWords splits a page of positioned words into one content unit
// per email address, each holding the words in that email's search region.
func UnitsFromWords(idPrefix string, words []model.Word, m Coordinate) []model.ContentUnit {
	var units []model.ContentUnit
	for i, a := range emailAnchors(words) {
		var region []model.Word
		for _, w := range words {
			if w.Page != a.Page || math.Abs(w.CenterX()-a.CenterX()) > m.XTolerance {
				continue
			}
			if w != a && emailWord.MatchString(w.Text) {
				continue
			}
			dy := w.CenterY() - a.CenterY()
			if dy >= -m.Above && dy <= m.Below {
				region = append(region, w)
			}
		}
		var texts []string
		for _, l := range groupLines(region, m.LineYTol, m.LineXGap) {
			texts = append(texts, l.text())
		}
		units = append(units, model.ContentUnit{
			ID:    fmt.Sprintf("%s-%d", idPrefix, i+1),
			Text:  strings.Join(texts, "\n"),
			Words: region,
			Coordinates: &model.Coordinates{
				X: a.X0, Y: a.Y0 - m.Above, Width: a.X1 - a.X0, Height: m.Above + m.Below,
			},
		})
	}
	return units
}
