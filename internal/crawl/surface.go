// Package crawl drives a browser session across a result surface, feeding
// raw items through field extraction and accumulating leads until a limit or
// termination condition is reached.
package crawl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
)

// PagedSurface describes one paged search-engine result shape: where results
// live, how to reach the next page, and how the surface tags its leads.
// The per-surface differences are pure data; the control flow is shared.
type PagedSurface struct {
	Name           string // lead provenance tag
	ResultSelector string // CSS selector for one result block
	TitleSelectors []string
	NextSelectors  []string // "next page" controls, tried in order

	// SearchURL builds the first results page for a query.
	SearchURL func(query string) string
	// RewriteURL rewrites the pagination parameter in the current URL as the
	// fallback advance strategy. pageNum is the 1-based page being left.
	RewriteURL func(current string, pageNum int) string
}

var (
	googleStartParam = regexp.MustCompile(`start=\d+`)
	yahooOffsetParam = regexp.MustCompile(`b=(\d+)`)
	bingFirstParam   = regexp.MustCompile(`first=\d+`)
)

// GoogleSurface paginates classic Google results via the start= offset.
var GoogleSurface = PagedSurface{
	Name:           leads.SourceGoogle,
	ResultSelector: "div.g",
	TitleSelectors: []string{"h3"},
	NextSelectors:  []string{"a#pnnext", "a[aria-label='Next page']", "button[aria-label='Next page']"},
	SearchURL: func(query string) string {
		return "https://www.google.com/search?q=" + url.QueryEscape(query)
	},
	RewriteURL: func(current string, pageNum int) string {
		next := fmt.Sprintf("start=%d", pageNum*10)
		if googleStartParam.MatchString(current) {
			return googleStartParam.ReplaceAllString(current, next)
		}
		return current + "&" + next
	},
}

// YahooSurface paginates Yahoo results via the b= offset, which advances in
// steps of ten.
var YahooSurface = PagedSurface{
	Name:           leads.SourceYahoo,
	ResultSelector: "div.algo, li.algo",
	TitleSelectors: []string{"h3"},
	NextSelectors:  []string{`a[href*="b="]`, "a[aria-label='Next']", "a[aria-label='Next page']", "a.next"},
	SearchURL: func(query string) string {
		return "https://search.yahoo.com/search?p=" + url.QueryEscape(query)
	},
	RewriteURL: func(current string, pageNum int) string {
		if m := yahooOffsetParam.FindStringSubmatch(current); m != nil {
			var offset int
			fmt.Sscanf(m[1], "%d", &offset)
			return yahooOffsetParam.ReplaceAllString(current, fmt.Sprintf("b=%d", offset+10))
		}
		return current + "&b=10"
	},
}

// BingSurface paginates Bing results via the first= offset (1, 11, 21, ...).
var BingSurface = PagedSurface{
	Name:           leads.SourceBing,
	ResultSelector: "li.b_algo",
	TitleSelectors: []string{"h2", "h3"},
	NextSelectors:  []string{"a.sb_pagNext", "a[aria-label='Next page']", "a[title='Next page']"},
	SearchURL: func(query string) string {
		return "https://www.bing.com/search?q=" + url.QueryEscape(query)
	},
	RewriteURL: func(current string, pageNum int) string {
		next := fmt.Sprintf("first=%d", pageNum*10+1)
		if bingFirstParam.MatchString(current) {
			return bingFirstParam.ReplaceAllString(current, next)
		}
		return current + "&" + next
	},
}

// SurfaceFor returns the paged surface for an engine name.
func SurfaceFor(engine string) (PagedSurface, error) {
	switch strings.ToLower(engine) {
	case "google":
		return GoogleSurface, nil
	case "yahoo":
		return YahooSurface, nil
	case "bing":
		return BingSurface, nil
	default:
		return PagedSurface{}, fmt.Errorf("no paged surface for engine %q", engine)
	}
}

// MapsSearchURL builds the map-listing search URL for keywords and location.
func MapsSearchURL(keywords, location string) string {
	query := keywords + " in " + location
	return "https://www.google.com/maps/search/" + strings.ReplaceAll(url.PathEscape(query), "%20", "+")
}
