package usecase

import (
	"strings"
	"time"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/extractor"
	"github.com/user/restaurant-kb-sync/internal/hashgate"
	"github.com/user/restaurant-kb-sync/internal/knowledge"
)

// ExtractPages runs the extractor over every page that carries HTML, in
// page order.
func ExtractPages(pages []*entity.CrawledPage) []*entity.ExtractedFacts {
	var facts []*entity.ExtractedFacts
	for _, p := range pages {
		if !p.HasHTML() {
			continue
		}
		source := p.FinalURL
		if source == "" {
			source = p.URL
		}
		facts = append(facts, extractor.Extract(source, *p.RawHTML))
	}
	return facts
}

// BuildContent assembles the stored scrape result of one site: merged text,
// daily section, knowledge entries and a fingerprint of the full text.
func BuildContent(slug, name, websiteURL string, facts []*entity.ExtractedFacts, scrapedAt time.Time) *entity.RestaurantContent {
	full := joinTexts(facts)
	return &entity.RestaurantContent{
		Slug:         slug,
		Name:         name,
		WebsiteURL:   websiteURL,
		FullContent:  full,
		DailySpecial: knowledge.Merge(name, facts).DailySpecial,
		Facts:        facts,
		Knowledge:    knowledge.BuildEntries(slug, name, facts),
		ContentHash:  hashgate.ComputeFingerprint(full),
		ScrapedAt:    scrapedAt,
	}
}

func joinTexts(facts []*entity.ExtractedFacts) string {
	parts := make([]string, 0, len(facts))
	for _, f := range facts {
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
