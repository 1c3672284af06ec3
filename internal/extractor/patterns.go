package extractor

import (
	"regexp"
	"strings"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

var (
	phonePattern = regexp.MustCompile(`(?i)(?:telefon|tel|phone)\.?[:\s]*([\d\s\-+()]{8,})`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// "Storgatan 12, 252 20 Helsingborg"
	addressPattern = regexp.MustCompile(
		`[A-ZÅÄÖ][a-zåäöé]+(?:\s[A-ZÅÄÖa-zåäö][a-zåäöé]+)?\s\d{1,4}[A-Za-z]?,?\s+\d{3}\s?\d{2}\s+[A-ZÅÄÖ][a-zåäöé]+`)

	// "måndag 11:00-22:00", "Mån-Fre 11.00 – 14.00"
	hoursPattern = regexp.MustCompile(
		`(?i)\b(?:mån|tis|ons|tor|fre|lör|sön)[a-zåäö]*\.?` +
			`(?:\s*[-–]\s*(?:mån|tis|ons|tor|fre|lör|sön)[a-zåäö]*\.?)?` +
			`\s*:?\s*\d{1,2}[:.]\d{2}\s*[-–]\s*\d{1,2}[:.]\d{2}`)
)

func extractPatterns(rawHTML string, facts *entity.ExtractedFacts) {
	for _, m := range phonePattern.FindAllStringSubmatch(rawHTML, -1) {
		phone := normalizeSpace(strings.TrimSpace(m[1]))
		if countDigits(phone) < 6 {
			continue
		}
		facts.ContactInfo.Phones = appendUnique(facts.ContactInfo.Phones, phone, maxPhones)
	}

	for _, m := range emailPattern.FindAllString(rawHTML, -1) {
		if isAssetName(m) {
			continue
		}
		facts.ContactInfo.Emails = appendUnique(facts.ContactInfo.Emails, m, maxEmails)
	}

	for _, m := range addressPattern.FindAllString(rawHTML, -1) {
		facts.ContactInfo.Addresses = appendUnique(facts.ContactInfo.Addresses, normalizeSpace(m), maxAddresses)
	}

	for _, m := range hoursPattern.FindAllString(rawHTML, -1) {
		facts.OpeningHours = appendUnique(facts.OpeningHours, normalizeSpace(m), maxOpeningHours)
	}
}

// isAssetName reports retina image names such as "logo@2x.png", which the
// email pattern also matches.
func isAssetName(match string) bool {
	ext := strings.ToLower(match[strings.LastIndex(match, ".")+1:])
	return assetExtensions[ext]
}

var assetExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
	"svg": true, "avif": true, "ico": true, "bmp": true,
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
