package models

import "time"

// RawTourRecord is the flat record the extractor pulls out of a rendered
// marketplace listing. Created once per run and never mutated afterwards.
type RawTourRecord struct {
	Title       string
	Rating      float64 // 0–5, zero when the listing shows none
	ReviewCount int
	Price       float64 // USD unless the listing says otherwise
	Currency    string
	Duration    string // free text, e.g. "2.5 hours"
	Description string
	Highlights  []string
	Includes    []string
	Language    string

	FreeCancellation     bool
	SkipTheLine          bool
	SmallGroup           bool
	WheelchairAccessible bool

	ImageURLs    []string // deduped, size-filtered, capped, discovery order
	ReviewQuotes []string // up to 3 short excerpts

	SourceURL string
	ScrapedAt time.Time
}

// NormalizedImage is one downloaded candidate re-encoded to the canonical
// JPEG format. Width/Height are the original decoded dimensions: the
// normalizer never resizes, only re-encodes.
type NormalizedImage struct {
	Data     []byte
	Filename string
	Width    int
	Height   int
	MIMEType string
	AltText  string
}

// GeneratedContent is the synthesizer's output after metadata extraction,
// fallback filling and body cleanup.
type GeneratedContent struct {
	Title          string // primary H1, at most 60 chars
	BodyTitle      string // secondary H2 shown above the article body
	OriginalTitle  string // marketplace title kept for traceability
	SEOTitle       string // at most 60 chars
	SEODescription string // at most 160 chars
	Keywords       []string
	Body           string // cleaned markdown-like text
	City           string // empty when no gazetteer entry matched
}

// PublishResult is what a run hands back to the operator.
type PublishResult struct {
	DryRun     bool
	DocumentID string
	Slug       string
	SiteURL    string
	AssetIDs   []string
}
