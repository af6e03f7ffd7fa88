package textextract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// BlocksFromHTML returns the text of every element matching selector, in
// document order. Matches nested inside another match are skipped, and text
// nodes are joined by single spaces. An empty selector selects DefaultSelector.
func BlocksFromHTML(r io.Reader, selector string) ([]string, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse html")
	}

	blocks := []string{}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(selector).Length() > 0 {
			return
		}
		text := selectionText(s)
		if text == "" {
			// icon-only chips carry their text in the label
			text = strings.Join(strings.Fields(s.AttrOr("aria-label", "")), " ")
		}
		if text != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks, nil
}

func selectionText(s *goquery.Selection) string {
	var parts []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			parts = append(parts, c.Text())
		case "script", "style", "#comment":
		default:
			parts = append(parts, selectionText(c))
		}
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
