package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

const menuSelector = `[class*='menu'], [class*='meny'], [class*='dish'], [class*='food'], ` +
	`[class*='ratt'], [class*='rätt'], [class*='lunch-item'], [class*='product']`

const menuTitleSelector = `h1, h2, h3, h4, h5, h6, [class*='name'], [class*='title'], strong, b`

var pricePattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d{1,2})?)\s*(kr|:-|sek)`)

// extractMenu reads dishes from the innermost elements matching the menu
// class heuristics, ignoring site navigation. Items without a title are dropped and repeated titles
// keep their first occurrence.
func extractMenu(doc *goquery.Document) []entity.MenuItem {
	items := []entity.MenuItem{}
	seen := make(map[string]bool)

	doc.Find(menuSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if s.Find(menuSelector).Length() > 0 || s.Closest("nav, header, footer").Length() > 0 {
			return true
		}
		item, ok := parseMenuItem(s)
		if !ok || seen[item.Title] {
			return true
		}
		seen[item.Title] = true
		items = append(items, item)
		return len(items) < maxMenuItems
	})

	return items
}

func parseMenuItem(s *goquery.Selection) (entity.MenuItem, bool) {
	text := spacedText(s)
	if text == "" {
		return entity.MenuItem{}, false
	}

	var item entity.MenuItem
	item.Title = normalizeSpace(s.Find(menuTitleSelector).First().Text())
	item.Description = normalizeSpace(s.Find("p, [class*='desc']").First().Text())

	if m := pricePattern.FindStringSubmatch(text); m != nil {
		if price, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64); err == nil {
			item.Price = &price
			item.Currency = "SEK"
		}
	}

	if item.Title == "" {
		item.Title = titleFromText(text)
	}
	if item.Title == "" {
		return entity.MenuItem{}, false
	}
	if item.Description == item.Title {
		item.Description = ""
	}
	return item, true
}

// titleFromText handles flat items such as "Pasta carbonara - 129 kr".
func titleFromText(text string) string {
	text = pricePattern.ReplaceAllString(text, "")
	for _, sep := range []string{":", " - ", " – ", "("} {
		if idx := strings.Index(text, sep); idx > 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(text, "-–.,"))
}
