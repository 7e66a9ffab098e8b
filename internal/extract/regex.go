// Package extract turns raw page content into partial lead records using
// ordered extraction strategies: structured attributes first, scoped links
// second, regex over visible text last.
package extract

import (
	"regexp"
	"strings"
)

var (
	// phoneIntlRegex matches international-prefixed numbers.
	phoneIntlRegex = regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	// phoneLocalRegex is the North-American fallback pattern.
	phoneLocalRegex = regexp.MustCompile(`(\(\d{3}\)\s*|\b\d{3}[-.\s])\d{3}[-.\s]?\d{4}\b`)

	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	websiteRegex = regexp.MustCompile(`(https?://)?(www\.)?([a-zA-Z0-9\-]+\.)+[a-zA-Z]{2,}`)

	// addressStreetRegex matches a US-style street address with ZIP code.
	addressStreetRegex = regexp.MustCompile(`\d+\s+[A-Za-z\s]+(Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln)[,\s]+[A-Za-z\s]+,?\s*(NY|NJ|CT|PA)?\s*\d{5}`)
	// addressHouseRegex is the looser house-number fallback.
	addressHouseRegex = regexp.MustCompile(`\d{1,5}\s+[A-Za-z][A-Za-z\s]{2,40},\s*[A-Za-z\s]+\d{5}`)
)

// placeholderDomains end an email match that carries no actionable contact.
var placeholderDomains = []string{
	"example.com",
	"example.org",
	"example.net",
	"yourdomain.com",
	"email.com",
	"domain.com",
}

// digitBlocks maps the zero rune of Unicode decimal-digit blocks that show up
// in decorative phone renderings to ASCII.
var digitBlocks = []rune{
	0x0660, // Arabic-Indic
	0x06F0, // Extended Arabic-Indic
	0x0966, // Devanagari
	0x09E6, // Bengali
	0x0AE6, // Gujarati
	0x0E50, // Thai
	0xFF10, // Fullwidth
}

// FoldDigits rewrites non-ASCII decimal digits as their ASCII equivalents so
// phone patterns match regardless of glyph choice.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		for _, zero := range digitBlocks {
			if r >= zero && r <= zero+9 {
				return '0' + (r - zero)
			}
		}
		return r
	}, s)
}

// IsPlaceholderEmail reports whether an email ends in a known non-actionable
// placeholder domain.
func IsPlaceholderEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, d := range placeholderDomains {
		if strings.HasSuffix(lower, "@"+d) {
			return true
		}
	}
	return false
}
