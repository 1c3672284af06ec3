package entity

import "time"

// RestaurantContent is the stored result of the latest scrape of a site.
type RestaurantContent struct {
	Slug         string
	Name         string
	WebsiteURL   string
	FullContent  string
	DailySpecial string
	Facts        []*ExtractedFacts
	Knowledge    []KnowledgeEntry
	ContentHash  Fingerprint
	ScrapedAt    time.Time
}

// DailyContent is what the knowledge sync pushes: the daily section when
// one was found, otherwise nothing.
type DailyContent struct {
	Content     string `json:"content"`
	FullContent string `json:"fullContent"`
}
