package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractDailySpecial finds the "dagens" section of a page. An element
// named after it wins; otherwise a heading mentioning it is taken together
// with its content up to the next major heading.
func extractDailySpecial(doc *goquery.Document) string {
	for _, sel := range []string{
		"[id*='dagens'], [class*='dagens']",
		"[id*='lunch'], [class*='lunch']",
	} {
		if text := spacedText(doc.Find(sel).First()); text != "" {
			return truncate(text, maxDailyLength)
		}
	}

	var section string
	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(i int, h *goquery.Selection) bool {
		heading := normalizeSpace(h.Text())
		if !strings.Contains(strings.ToLower(heading), "dagens") {
			return true
		}
		body := spacedText(h.NextUntil("h1, h2, h3"))
		section = strings.TrimSpace(heading + " " + body)
		return false
	})

	return truncate(section, maxDailyLength)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
