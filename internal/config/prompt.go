package config

import "strings"

// emailIndicators mark a prompt as an email-dork query.
var emailIndicators = []string{
	"@gmail.com",
	"@yahoo.com",
	"@hotmail.com",
	"@outlook.com",
	"contact@",
	"site:",
}

// socialIndicators mark a prompt as a social-profile dork query.
var socialIndicators = []string{
	"facebook.com",
	"instagram.com",
	"fb.com",
	"fb.me",
}

// ParsedPrompt is the outcome of classifying a free-text search prompt.
type ParsedPrompt struct {
	SearchType string // "maps" or "dork"
	Keywords   string
	Location   string
	Target     string // email or profile, dork prompts only
}

// ParseSearchPrompt classifies a prompt into a map search or a dork search.
// Map prompts split keywords from location on " in " or " near "; prompts
// without a location fall back to defaultLocation. Dork prompts keep the
// full text as keywords and pick the target from the indicator that matched.
func ParseSearchPrompt(prompt, defaultLocation string) ParsedPrompt {
	parsed := ParsedPrompt{
		SearchType: "maps",
		Target:     TargetEmail,
	}

	lower := strings.ToLower(prompt)

	for _, ind := range socialIndicators {
		if strings.Contains(lower, ind) {
			parsed.SearchType = "dork"
			parsed.Keywords = prompt
			parsed.Target = TargetProfile
			return parsed
		}
	}
	for _, ind := range emailIndicators {
		if strings.Contains(lower, ind) {
			parsed.SearchType = "dork"
			parsed.Keywords = prompt
			return parsed
		}
	}

	switch {
	case strings.Contains(lower, " in "):
		idx := strings.Index(lower, " in ")
		parsed.Keywords = strings.TrimSpace(prompt[:idx])
		parsed.Location = strings.TrimSpace(prompt[idx+len(" in "):])
	case strings.Contains(lower, " near "):
		idx := strings.Index(lower, " near ")
		parsed.Keywords = strings.TrimSpace(prompt[:idx])
		parsed.Location = strings.TrimSpace(prompt[idx+len(" near "):])
	default:
		parsed.Keywords = strings.TrimSpace(prompt)
		parsed.Location = defaultLocation
	}

	return parsed
}
