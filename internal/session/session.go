// Package session manages browser sessions with randomized fingerprints and
// anti-automation countermeasures on top of chromedp.
package session

import (
	"context"
	"time"
)

// Element is a handle to a DOM node inside a live page.
type Element interface {
	// Attribute returns a node attribute and whether it was present.
	// It reads the attributes captured at query time and never fails.
	Attribute(name string) (string, bool)
	// Text returns the node's text content.
	Text(ctx context.Context) (string, error)
	// OuterHTML returns the node's outer HTML.
	OuterHTML(ctx context.Context) (string, error)
	// Click dispatches a mouse click on the node.
	Click(ctx context.Context) error
}

// Session is the browser capability consumed by the crawl engine. It is the
// only browser-automation surface the engine depends on.
type Session interface {
	// Navigate loads a URL and waits for the document body, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// QueryAll returns all elements matching a CSS selector; an empty slice
	// when nothing matches.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// QueryOne returns the first match or nil when nothing matches.
	QueryOne(ctx context.Context, selector string) (Element, error)
	// Evaluate runs a script in the page and unmarshals the result into out
	// (out may be nil to discard).
	Evaluate(ctx context.Context, script string, out any) error
	// NewTab opens a fresh page in the same browser.
	NewTab(ctx context.Context) (Session, error)
	// Close closes this page; closing the root page tears down the browser.
	Close() error
}
