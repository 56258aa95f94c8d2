package models

import "fmt"

// ExtractionError covers every fatal scraping condition: a URL outside the
// allowed domain, a navigation timeout, or a page that never showed its
// content marker.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ImageError is a per-image download/decode/encode failure. It is logged and
// skipped inside the normalizer and never propagates out of that stage.
type ImageError struct {
	URL string
	Err error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image processing failed for %s: %v", e.URL, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// SynthesisError means the text-generation call itself failed. Malformed
// content from the model is never an error; it only triggers fallbacks.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("content synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// PublishError means an asset upload or the document create call failed.
// Assets uploaded before the failure are not rolled back.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed during %s: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
