package extract

import (
	"regexp"
	"strings"
)

// facebookNonProfile path fragments indicate generic Facebook pages rather
// than a profile.
var facebookNonProfile = []string{
	"/help/",
	"/login",
	"/accounts/",
	"/photo",
	"/video",
	"/story",
	"/groups/",
	"/pages/",
	"/apps/",
	"/events/",
}

// instagramNonProfile path fragments indicate generic Instagram pages.
var instagramNonProfile = []string{
	"/help/",
	"/login",
	"/accounts/",
	"/reels/",
	"/reel/",
	"/p/",
	"/popular/",
	"/explore/",
	"/about-us/",
	"/tags/",
	"/stories/",
	"/direct/",
	"/settings/",
	"/notifications/",
	"/search/",
	"/activity/",
	"/archive/",
	"/fundraiser/",
	"/ads/",
	"/business/",
	"/developers/",
	"/legal/",
	"/about/",
}

// instagramUsername requires a bare username path: 3+ word characters or
// dots, nothing after.
var instagramUsername = regexp.MustCompile(`instagram\.com/[a-zA-Z0-9_.]{3,}$`)

// IsValidProfileURL reports whether a URL points at an actual social media
// profile rather than a help, login, media, or other utility page.
func IsValidProfileURL(raw string) bool {
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)

	if strings.Contains(lower, "facebook.com") || strings.Contains(lower, "fb.com") {
		for _, frag := range facebookNonProfile {
			if strings.Contains(lower, frag) {
				return false
			}
		}
		return true
	}

	if strings.Contains(lower, "instagram.com") {
		for _, frag := range instagramNonProfile {
			if strings.Contains(lower, frag) {
				return false
			}
		}
		// Require the bare-username shape, ignoring query and trailing slash.
		if i := strings.IndexByte(lower, '?'); i >= 0 {
			lower = lower[:i]
		}
		lower = strings.TrimSuffix(lower, "/")
		return instagramUsername.MatchString(lower)
	}

	return false
}
