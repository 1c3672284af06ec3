// Package extractor turns restaurant HTML into structured facts.
//
// Two passes run independently over the same page: a DOM pass for
// structure-dependent data (title, headline, menu, daily section) and a
// pattern pass over the raw markup for contacts and opening hours.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

const (
	maxPhones       = 3
	maxEmails       = 2
	maxAddresses    = 2
	maxOpeningHours = 7
	maxMenuItems    = 50
	maxDailyLength  = 4000
)

// Extract never fails. Missing data yields empty fields and lists.
func Extract(sourceURL, rawHTML string) *entity.ExtractedFacts {
	facts := &entity.ExtractedFacts{
		SourceURL:    sourceURL,
		MenuItems:    []entity.MenuItem{},
		OpeningHours: []string{},
		ContactInfo: entity.ContactInfo{
			Phones:    []string{},
			Emails:    []string{},
			Addresses: []string{},
		},
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
		extractDOM(doc, facts)
	}
	extractPatterns(rawHTML, facts)
	facts.Summary = summarize(sourceURL, rawHTML)

	return facts
}

func extractDOM(doc *goquery.Document, facts *entity.ExtractedFacts) {
	doc.Find("script, style, noscript").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	facts.Title = normalizeSpace(doc.Find("title").First().Text())
	facts.Headline = normalizeSpace(doc.Find("h1").First().Text())

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	facts.Text = spacedText(root)
	facts.WordCount = len(strings.Fields(facts.Text))

	facts.MenuItems = extractMenu(doc)
	facts.DailySpecial = extractDailySpecial(doc)
}

// summarize returns the readability excerpt of the page, or "" when the
// page has no readable article.
func summarize(sourceURL, rawHTML string) string {
	parsedURL, err := url.Parse(sourceURL)
	if err != nil || parsedURL.Host == "" {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return ""
	}
	return normalizeSpace(article.Excerpt)
}

// spacedText is Selection.Text with element boundaries treated as
// whitespace, so "<p>a</p><p>b</p>" reads "a b" instead of "ab".
func spacedText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			b.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return normalizeSpace(b.String())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// appendUnique appends v unless it is empty, already present, or the list
// is full.
func appendUnique(list []string, v string, limit int) []string {
	if v == "" || len(list) >= limit {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
