package session

import "math/rand"

// Fingerprint is the randomized identity a session presents to the target.
type Fingerprint struct {
	UserAgent string
	Width     int
	Height    int
	Locale    string
	Latitude  float64
	Longitude float64
}

// userAgents is the fixed pool of desktop Chrome user agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// viewports is the fixed pool of common desktop window sizes.
var viewports = [][2]int{
	{1920, 1080},
	{1680, 1050},
	{1600, 900},
	{1536, 864},
	{1440, 900},
	{1366, 768},
}

// geolocations pairs a locale with plausible coordinates.
var geolocations = []struct {
	locale   string
	lat, lon float64
}{
	{"en-US", 40.7128, -74.0060},  // New York
	{"en-US", 34.0522, -118.2437}, // Los Angeles
	{"en-US", 41.8781, -87.6298},  // Chicago
	{"en-GB", 51.5074, -0.1278},   // London
}

// RandomFingerprint draws a fingerprint from the fixed pools.
func RandomFingerprint(rng *rand.Rand) Fingerprint {
	ua := userAgents[rng.Intn(len(userAgents))]
	vp := viewports[rng.Intn(len(viewports))]
	geo := geolocations[rng.Intn(len(geolocations))]
	// Nudge coordinates so repeated runs do not share an exact location.
	jitter := func(v float64) float64 { return v + (rng.Float64()-0.5)*0.02 }
	return Fingerprint{
		UserAgent: ua,
		Width:     vp[0],
		Height:    vp[1],
		Locale:    geo.locale,
		Latitude:  jitter(geo.lat),
		Longitude: jitter(geo.lon),
	}
}
