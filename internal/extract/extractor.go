package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
)

// Outcome is a typed extraction result: a hit, a clean miss, or a lookup
// error. Callers can distinguish "not found" from "lookup errored" even
// though both leave the field empty.
type Outcome struct {
	Value string
	Found bool
	Err   error
}

func hit(v string) Outcome  { return Outcome{Value: v, Found: true} }
func miss() Outcome         { return Outcome{} }
func failed(err error) Outcome { return Outcome{Err: err} }

// platformDomains are hosts never taken as a business website: the search
// engines themselves, map providers, and OS vendor domains.
var platformDomains = []string{
	"google.com",
	"google.co",
	"gstatic.com",
	"googleusercontent.com",
	"bing.com",
	"yahoo.com",
	"microsoft.com",
	"msn.com",
	"apple.com",
	"duckduckgo.com",
}

func isPlatformHost(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for _, d := range platformDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Phone extracts a phone number from visible text. Digits are folded to
// ASCII first; the international pattern wins over the regional fallback.
func Phone(text string) Outcome {
	folded := FoldDigits(text)
	if m := phoneIntlRegex.FindString(folded); m != "" {
		return hit(strings.TrimSpace(m))
	}
	if m := phoneLocalRegex.FindString(folded); m != "" {
		return hit(strings.TrimSpace(m))
	}
	return miss()
}

// Email returns the first non-placeholder email in text, lowercased.
func Email(text string) Outcome {
	for _, m := range emailRegex.FindAllString(text, -1) {
		if !IsPlaceholderEmail(m) {
			return hit(strings.ToLower(m))
		}
	}
	return miss()
}

// Emails returns every non-placeholder email in text, lowercased, in order.
func Emails(text string) []string {
	var out []string
	for _, m := range emailRegex.FindAllString(text, -1) {
		if !IsPlaceholderEmail(m) {
			out = append(out, strings.ToLower(m))
		}
	}
	return out
}

// Website extracts a bare-domain website from visible text, skipping matches
// on platform domains. The scheme is normalized to https when absent.
func Website(text string) Outcome {
	for _, m := range websiteRegex.FindAllString(text, -1) {
		candidate := m
		if !strings.HasPrefix(candidate, "http") {
			candidate = "https://" + candidate
		}
		u, err := url.Parse(candidate)
		if err != nil || u.Hostname() == "" {
			continue
		}
		if isPlatformHost(u.Hostname()) {
			continue
		}
		return hit(candidate)
	}
	return miss()
}

// Address extracts a street address: street-suffix pattern first, regional
// house-number fallback second. The result is bounded at 200 characters.
func Address(text string) Outcome {
	if m := addressStreetRegex.FindString(text); m != "" {
		return hit(leads.TruncateAddress(m))
	}
	if m := addressHouseRegex.FindString(text); m != "" {
		return hit(leads.TruncateAddress(m))
	}
	return miss()
}

// FirstExternalLink parses an HTML fragment and returns the first outbound
// link whose host is not a platform domain.
func FirstExternalLink(html string) Outcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failed(err)
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return true
		}
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" || isPlatformHost(u.Hostname()) {
			return true
		}
		found = href
		return false
	})
	if found == "" {
		return miss()
	}
	return hit(found)
}

// FirstLink returns the first absolute link in an HTML fragment, platform or
// not. Used by the profile target where the platform link is the point.
func FirstLink(html string) Outcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failed(err)
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return true
		}
		found = href
		return false
	})
	if found == "" {
		return miss()
	}
	return hit(found)
}

// Title returns the text of the first element matching any of the given
// selectors, bounded at the name length ceiling.
func Title(html string, selectors ...string) Outcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failed(err)
	}
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := strings.TrimSpace(s.Text()); text != "" {
				return hit(leads.TruncateName(text))
			}
		}
	}
	return miss()
}

// NameFromURL derives a human-readable business name from the last non-empty
// path segment of a website URL, used when no structural name was found.
func NameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	var last string
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			last = segments[i]
			break
		}
	}
	if last == "" {
		last = strings.TrimPrefix(u.Hostname(), "www.")
		if i := strings.LastIndex(last, "."); i > 0 {
			last = last[:i]
		}
	}
	if last == "" {
		return ""
	}
	last = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(last)
	words := strings.Fields(last)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return leads.TruncateName(strings.Join(words, " "))
}
