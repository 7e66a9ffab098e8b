package leads

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// genericDomains are social/hosting hosts excluded from the website dedup
// key: two businesses sharing a facebook.com link are not the same business.
var genericDomains = []string{
	"facebook.com",
	"fb.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"youtube.com",
	"yelp.com",
	"wixsite.com",
	"wordpress.com",
	"blogspot.com",
	"squarespace.com",
	"weebly.com",
	"godaddysites.com",
}

// corporateSuffixes are trailing legal-form words stripped during business
// name normalization.
var corporateSuffixes = map[string]struct{}{
	"llc": {}, "inc": {}, "ltd": {}, "co": {}, "corp": {},
	"corporation": {}, "company": {}, "llp": {}, "plc": {}, "gmbh": {},
	"incorporated": {}, "limited": {},
}

var (
	nameSeparators = regexp.MustCompile(`[-|,(].*$`)
	nonWordChars   = regexp.MustCompile(`[^\w\s]`)
	multiSpace     = regexp.MustCompile(`\s+`)
	nonPhoneChars  = regexp.MustCompile(`[^\d+]`)
)

// NormalizeBusinessName produces the canonical dedup key for a display name:
// lowercased, cut at the first separator, corporate suffixes and punctuation
// stripped, whitespace collapsed.
func NormalizeBusinessName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nameSeparators.ReplaceAllString(s, "")
	s = nonWordChars.ReplaceAllString(s, "")

	words := strings.Fields(s)
	for len(words) > 0 {
		if _, ok := corporateSuffixes[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return multiSpace.ReplaceAllString(strings.Join(words, " "), " ")
}

// ValidatePhone keeps the original formatted string only when the digit
// portion is a plausible length (10-15 digits), otherwise returns "".
// Idempotent: validating an already-validated value yields the same value.
func ValidatePhone(phone string) string {
	if phone == "" {
		return ""
	}
	stripped := nonPhoneChars.ReplaceAllString(phone, "")
	if n := len(strings.TrimPrefix(stripped, "+")); n >= 10 && n <= 15 {
		return phone
	}
	return ""
}

// websiteKey canonicalizes a website URL for dedup: scheme, www prefix and
// trailing slash removed, lowercased. Returns "" for generic social/hosting
// domains so they never collide records.
func websiteKey(website string) string {
	if website == "" {
		return ""
	}
	raw := website
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(website, "/"))
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, d := range genericDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return ""
		}
	}
	return host + strings.TrimSuffix(strings.ToLower(u.Path), "/")
}

// Pipeline cleans an accumulated raw lead list into the final set.
type Pipeline struct {
	log *logger.Logger
}

// NewPipeline creates a cleaning pipeline.
func NewPipeline(log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{log: log.WithComponent("pipeline")}
}

// Clean deduplicates and validates raw leads, preserving first-seen order.
// Stages run in sequence: email dedup, website dedup, name dedup with
// info-score tie-breaking, phone validation, contact-presence filter.
// A nil or empty input yields an empty (non-nil) list.
func (p *Pipeline) Clean(raw []Lead) []Lead {
	out := p.dedupEmail(raw)
	out = p.dedupWebsite(out)
	out = p.dedupName(out)

	for i := range out {
		out[i].Email = strings.ToLower(out[i].Email)
		out[i].PhoneNumber = ValidatePhone(out[i].PhoneNumber)
	}

	final := make([]Lead, 0, len(out))
	for _, l := range out {
		if l.BusinessName == "" || !l.HasContact() {
			continue
		}
		final = append(final, l)
	}

	p.log.Info("pipeline complete", "raw", len(raw), "clean", len(final))
	return final
}

func (p *Pipeline) dedupEmail(in []Lead) []Lead {
	seen := make(map[string]struct{})
	out := make([]Lead, 0, len(in))
	for _, l := range in {
		key := strings.ToLower(l.Email)
		if key != "" {
			if _, dup := seen[key]; dup {
				p.log.Debug("dropping duplicate email", "email", key)
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}

func (p *Pipeline) dedupWebsite(in []Lead) []Lead {
	seen := make(map[string]struct{})
	out := make([]Lead, 0, len(in))
	for _, l := range in {
		key := websiteKey(l.Website)
		if key != "" {
			if _, dup := seen[key]; dup {
				p.log.Debug("dropping duplicate website", "website", l.Website)
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}

// dedupName keeps, among records sharing a normalized name, the one with the
// highest information score; ties go to the first seen. The survivor stays at
// the first-seen position.
func (p *Pipeline) dedupName(in []Lead) []Lead {
	index := make(map[string]int)
	out := make([]Lead, 0, len(in))
	for _, l := range in {
		key := NormalizeBusinessName(l.BusinessName)
		if key == "" {
			out = append(out, l)
			continue
		}
		if at, dup := index[key]; dup {
			if l.InfoScore() > out[at].InfoScore() {
				out[at] = l
			}
			continue
		}
		index[key] = len(out)
		out = append(out, l)
	}
	return out
}
