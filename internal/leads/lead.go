// Package leads defines the extracted contact record and the cleaning
// pipeline applied to a finished crawl run.
package leads

import "strings"

// Provenance tags for search-engine leads. Map-listing leads carry no source.
const (
	SourceGoogle = "Google Search"
	SourceYahoo  = "Yahoo Search"
	SourceBing   = "Bing Search"
)

// Field length ceilings applied at extraction time.
const (
	MaxNameLen    = 100
	MaxAddressLen = 200
)

// Lead is one extracted contact record. Fields are raw as matched on the
// page; empty string means "not found".
type Lead struct {
	BusinessName string `json:"business_name"`
	PhoneNumber  string `json:"phone_number"`
	Website      string `json:"website"`
	Address      string `json:"address"`
	Email        string `json:"email"`
	Source       string `json:"source,omitempty"`
}

// HasContact reports whether at least one contact field is populated.
func (l Lead) HasContact() bool {
	return l.PhoneNumber != "" || l.Website != "" || l.Email != ""
}

// InfoScore counts non-empty contact fields, used as a dedup tie-breaker.
func (l Lead) InfoScore() int {
	score := 0
	for _, v := range []string{l.PhoneNumber, l.Website, l.Email} {
		if v != "" {
			score++
		}
	}
	return score
}

// TruncateName trims and bounds a display name.
func TruncateName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxNameLen {
		s = s[:MaxNameLen]
	}
	return s
}

// TruncateAddress trims and bounds a free-text address.
func TruncateAddress(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxAddressLen {
		s = s[:MaxAddressLen]
	}
	return s
}
