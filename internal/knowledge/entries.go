// Package knowledge turns extracted facts into knowledge-base entries.
package knowledge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

// Profile is the merged view of every page scraped for one restaurant.
type Profile struct {
	Name         string
	Summary      string
	SummaryURL   string
	Phones       []string
	Emails       []string
	Addresses    []string
	OpeningHours []string
	MenuItems    []entity.MenuItem
	MenuSources  []string
	DailySpecial string
	DailyURL     string
}

// Merge combines per-page facts in page order. Earlier pages win for
// single values and list entries keep their first occurrence.
func Merge(name string, facts []*entity.ExtractedFacts) *Profile {
	p := &Profile{Name: name}
	seenDish := make(map[string]bool)

	for _, f := range facts {
		if f == nil {
			continue
		}
		if p.Summary == "" && f.Summary != "" {
			p.Summary, p.SummaryURL = f.Summary, f.SourceURL
		}
		if p.DailySpecial == "" && f.DailySpecial != "" {
			p.DailySpecial, p.DailyURL = f.DailySpecial, f.SourceURL
		}
		p.Phones = mergeUnique(p.Phones, f.ContactInfo.Phones, 3)
		p.Emails = mergeUnique(p.Emails, f.ContactInfo.Emails, 2)
		p.Addresses = mergeUnique(p.Addresses, f.ContactInfo.Addresses, 2)
		p.OpeningHours = mergeUnique(p.OpeningHours, f.OpeningHours, 7)

		for _, item := range f.MenuItems {
			if seenDish[item.Title] {
				continue
			}
			seenDish[item.Title] = true
			p.MenuItems = append(p.MenuItems, item)
			p.MenuSources = append(p.MenuSources, f.SourceURL)
		}
	}
	return p
}

// BuildEntries renders a restaurant's facts as JSONL-ready entries with
// ids of the form <slug>-<type>-<n>.
func BuildEntries(slug, name string, facts []*entity.ExtractedFacts) []entity.KnowledgeEntry {
	p := Merge(name, facts)
	b := &builder{slug: slug, counters: make(map[entity.EntryType]int)}

	if p.Summary != "" {
		b.add(entity.EntryFact, fmt.Sprintf("Om %s: %s", p.Name, p.Summary), p.SummaryURL, "about")
	}
	if len(p.Addresses) > 0 {
		b.add(entity.EntryFact, fmt.Sprintf("%s ligger på %s.", p.Name, strings.Join(p.Addresses, " och ")), "", "contact", "address")
	}
	if len(p.Phones) > 0 {
		b.add(entity.EntryFact, fmt.Sprintf("Telefonnummer till %s: %s.", p.Name, strings.Join(p.Phones, ", ")), "", "contact", "phone")
	}
	if len(p.Emails) > 0 {
		b.add(entity.EntryFact, fmt.Sprintf("E-post till %s: %s.", p.Name, strings.Join(p.Emails, ", ")), "", "contact", "email")
	}
	if len(p.OpeningHours) > 0 {
		hours := strings.Join(p.OpeningHours, "; ")
		b.add(entity.EntryFact, fmt.Sprintf("Öppettider för %s: %s.", p.Name, hours), "", "hours")
		b.add(entity.EntryQA, fmt.Sprintf("Fråga: Vilka öppettider har ni? Svar: %s.", hours), "", "hours", "faq")
	}
	if contact := contactAnswer(p); contact != "" {
		b.add(entity.EntryQA, "Fråga: Hur kontaktar jag er? Svar: "+contact, "", "contact", "faq")
	}
	if p.DailySpecial != "" {
		b.add(entity.EntryQA, "Fråga: Vad serveras idag? Svar: "+p.DailySpecial, p.DailyURL, "dagens", "faq")
	}
	for i, item := range p.MenuItems {
		b.add(entity.EntryMenu, menuText(item), p.MenuSources[i], "menu")
	}

	return b.entries
}

type builder struct {
	slug     string
	counters map[entity.EntryType]int
	entries  []entity.KnowledgeEntry
}

func (b *builder) add(t entity.EntryType, text, source string, tags ...string) {
	b.counters[t]++
	b.entries = append(b.entries, entity.KnowledgeEntry{
		ID:     fmt.Sprintf("%s-%s-%03d", b.slug, t, b.counters[t]),
		Type:   t,
		Text:   text,
		Tags:   append([]string{}, tags...),
		Source: source,
	})
}

func contactAnswer(p *Profile) string {
	var parts []string
	if len(p.Phones) > 0 {
		parts = append(parts, "ring "+p.Phones[0])
	}
	if len(p.Emails) > 0 {
		parts = append(parts, "mejla "+p.Emails[0])
	}
	if len(parts) == 0 {
		return ""
	}
	answer := strings.Join(parts, " eller ")
	return strings.ToUpper(answer[:1]) + answer[1:] + "."
}

func menuText(item entity.MenuItem) string {
	text := item.Title
	if item.Description != "" {
		text += ": " + item.Description
	}
	if item.Price != nil {
		text += fmt.Sprintf(" (%s kr)", strconv.FormatFloat(*item.Price, 'f', -1, 64))
	}
	return text
}

func mergeUnique(dst, src []string, limit int) []string {
	for _, v := range src {
		if len(dst) >= limit {
			break
		}
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup && v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
