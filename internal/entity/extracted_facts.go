package entity

// MenuItem is a single dish found on a menu page.
type MenuItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

type ContactInfo struct {
	Phones    []string `json:"phones"`
	Emails    []string `json:"emails"`
	Addresses []string `json:"addresses"`
}

// ExtractedFacts is everything the extractor could recover from one page.
type ExtractedFacts struct {
	SourceURL    string      `json:"sourceUrl"`
	Title        string      `json:"title"`
	Headline     string      `json:"headline"`
	WordCount    int         `json:"wordCount"`
	Text         string      `json:"-"`
	MenuItems    []MenuItem  `json:"menuItems"`
	ContactInfo  ContactInfo `json:"contactInfo"`
	OpeningHours []string    `json:"openingHours"`
	DailySpecial string      `json:"dailySpecial,omitempty"`
	Summary      string      `json:"summary,omitempty"`
}
