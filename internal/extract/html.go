package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/sells-group/roster-cli/internal/model"
)

// blockTags start a new text line.
var blockTags = map[string]bool{
	"address": true, "article": true, "br": true, "dd": true, "div": true,
	"dl": true, "dt": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"ol": true, "p": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

// UnitFromHTML turns one directory card fragment into a content unit with
// line-structured text and its anchors.
func UnitFromHTML(id, fragment, pageURL string) (model.ContentUnit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return model.ContentUnit{}, eris.Wrap(err, "extract: parse html")
	}
	return unitFromSelection(id, doc.Find("body"), fragment, pageURL), nil
}

// UnitsFromHTML splits a page into content units, one per element matched
// by cardSelector.
func UnitsFromHTML(page, cardSelector, pageURL string) ([]model.ContentUnit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}
	if cardSelector == "" {
		return nil, eris.New("extract: card selector is required")
	}

	var units []model.ContentUnit
	doc.Find(cardSelector).Each(func(i int, s *goquery.Selection) {
		frag, _ := goquery.OuterHtml(s)
		units = append(units, unitFromSelection(fmt.Sprintf("card-%d", i+1), s, frag, pageURL))
	})
	return units, nil
}

func unitFromSelection(id string, s *goquery.Selection, fragment, pageURL string) model.ContentUnit {
	unit := model.ContentUnit{ID: id, PageURL: pageURL, HTML: fragment}

	s.Find("script, style, noscript").Remove()

	s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		unit.Links = append(unit.Links, model.Link{
			Href: href,
			Text: strings.Join(strings.Fields(a.Text()), " "),
		})
	})

	var b strings.Builder
	for _, n := range s.Nodes {
		writeText(&b, n)
	}
	unit.Text = normalizeLines(b.String())
	return unit
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if blockTags[n.Data] {
			b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteByte('\n')
	}
}

func normalizeLines(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
