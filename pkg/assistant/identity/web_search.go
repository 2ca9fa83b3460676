package identity

import (
	"context"
	"net/url"
)

// WebSearch attaches a search link users can follow when nothing mapped the
// name confidently. It makes no network call.
type WebSearch struct {
	searchURL string
}

func NewWebSearch(searchURL string) *WebSearch {
	if searchURL == "" {
		searchURL = "https://www.google.com/search"
	}
	return &WebSearch{searchURL: searchURL}
}

func (w *WebSearch) Name() string { return "web_search" }

func (w *WebSearch) Resolve(_ context.Context, c Candidate) (Partial, error) {
	if !c.AllowWebSearch || c.Current.Confidence >= LowConfidence {
		return Partial{}, nil
	}
	q := url.Values{}
	q.Set("q", c.RawName+" generic name")
	return Partial{Provenance: webSearchLabel + " (" + w.searchURL + "?" + q.Encode() + ")"}, nil
}
