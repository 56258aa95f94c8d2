package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tour-importer/config"
	"tour-importer/models"
)

// The marketplace markup carries no contract, so most fields are found by
// pattern search over the rendered text instead of fixed selectors. Everything
// fragile lives behind Extract so the heuristics can be swapped without
// touching downstream stages.

var (
	ratingWithCountRe = regexp.MustCompile(`(\d(?:\.\d)?)\s*\(\s*([\d,]+)\s+reviews?\)`)
	ratingOutOfRe     = regexp.MustCompile(`(\d(?:\.\d)?)\s*(?:/\s*5|out of 5)`)
	reviewCountRe     = regexp.MustCompile(`([\d,]+)\s+(?:verified )?reviews?`)
	priceRe           = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{1,2})?)`)
	durationRe        = regexp.MustCompile(`(?i)duration:?\s*([\d.,]+\s*(?:-\s*[\d.,]+\s*)?(?:hours?|hrs?|minutes?|mins?|days?))`)
	languageRe        = regexp.MustCompile(`(?i)(?:live tour guide|languages?|guide)[:\s]+([A-Z][a-z]+(?:\s*,\s*[A-Z][a-z]+)*)`)
	imgWidthParamRe   = regexp.MustCompile(`[?&](?:w|width)=(\d+)`)
)

// Extract parses a rendered listing page into a RawTourRecord. A record with
// an empty image list is still returned as a value; adequacy is the
// orchestrator's call.
func Extract(htmlStr, sourceURL string, cfg config.AppConfig) (*models.RawTourRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("parse rendered HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return nil, fmt.Errorf("no h1 title found on page")
	}

	fullText := normalizeWhitespace(doc.Text())
	rating, reviewCount := parseRating(fullText)
	lowerText := strings.ToLower(fullText)

	record := &models.RawTourRecord{
		Title:       title,
		Rating:      rating,
		ReviewCount: reviewCount,
		Price:       parsePrice(doc),
		Currency:    "USD",
		Duration:    parseDuration(doc, fullText),
		Description: parseDescription(doc),
		Highlights:  parseListSection(doc, "highlight"),
		Includes:    parseListSection(doc, "include", "inclusion"),
		Language:    parseLanguage(fullText),

		FreeCancellation:     strings.Contains(lowerText, "free cancellation"),
		SkipTheLine:          strings.Contains(lowerText, "skip the line") || strings.Contains(lowerText, "skip-the-line"),
		SmallGroup:           strings.Contains(lowerText, "small group") || strings.Contains(lowerText, "small-group"),
		WheelchairAccessible: strings.Contains(lowerText, "wheelchair accessible"),

		ImageURLs:    parseImageCandidates(doc, sourceURL, cfg.Images),
		ReviewQuotes: parseReviewQuotes(doc),

		SourceURL: sourceURL,
		ScrapedAt: time.Now(),
	}

	return record, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseRating searches the whole rendered text because the rating widget
// markup changes between listing templates.
func parseRating(fullText string) (float64, int) {
	if m := ratingWithCountRe.FindStringSubmatch(fullText); m != nil {
		rating, _ := strconv.ParseFloat(m[1], 64)
		count, _ := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
		if rating <= 5 {
			return rating, count
		}
	}

	var rating float64
	if m := ratingOutOfRe.FindStringSubmatch(fullText); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v <= 5 {
			rating = v
		}
	}
	var count int
	if m := reviewCountRe.FindStringSubmatch(fullText); m != nil {
		count, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	}
	return rating, count
}

// parsePrice takes the first price-classed element containing a dollar amount.
func parsePrice(doc *goquery.Document) float64 {
	var price float64
	doc.Find(`[class*="price"], [data-test-id*="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := priceRe.FindStringSubmatch(s.Text()); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v > 0 {
				price = v
				return false
			}
		}
		return true
	})
	return price
}

func parseDuration(doc *goquery.Document, fullText string) string {
	sel := doc.Find(`[class*="duration"], [data-test-id*="duration"]`).First()
	if text := normalizeWhitespace(sel.Text()); text != "" {
		if m := durationRe.FindStringSubmatch("duration: " + text); m != nil {
			return m[1]
		}
		if len(text) <= 40 {
			return text
		}
	}
	if m := durationRe.FindStringSubmatch(fullText); m != nil {
		return m[1]
	}
	return ""
}

func parseDescription(doc *goquery.Document) string {
	for _, selector := range []string{
		`[data-test-id*="description"]`,
		`[class*="description"]`,
		`[id*="description"]`,
	} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return normalizeWhitespace(text)
		}
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

func parseListSection(doc *goquery.Document, classHints ...string) []string {
	var items []string
	seen := map[string]bool{}
	for _, hint := range classHints {
		doc.Find(fmt.Sprintf(`[class*=%q] li, [data-test-id*=%q] li`, hint, hint)).Each(func(_ int, s *goquery.Selection) {
			text := normalizeWhitespace(s.Text())
			if text == "" || len(text) > 200 || seen[text] {
				return
			}
			seen[text] = true
			items = append(items, text)
		})
	}
	return items
}

func parseLanguage(fullText string) string {
	if m := languageRe.FindStringSubmatch(fullText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "English"
}

// parseImageCandidates collects gallery images, dedupes them by query-stripped
// base URL, drops small and extremely vertical ones, and caps the list.
func parseImageCandidates(doc *goquery.Document, sourceURL string, cfg config.ImagesConfig) []string {
	base, _ := url.Parse(sourceURL)

	var candidates []string
	seen := map[string]bool{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if len(candidates) >= cfg.MaxCandidates {
			return
		}

		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		abs := absoluteURL(src, base)
		if abs == "" {
			return
		}
		lower := strings.ToLower(abs)
		if strings.Contains(lower, ".svg") || strings.Contains(lower, "logo") ||
			strings.Contains(lower, "icon") || strings.Contains(lower, "sprite") ||
			strings.Contains(lower, "avatar") {
			return
		}

		width, height := declaredDimensions(s, abs)
		if width > 0 && width < cfg.MinWidth {
			return
		}
		// verticality cap: portrait crops past 1.5:1 render badly in the hero slot
		if width > 0 && height > 0 && float64(height)/float64(width) > 1.5 {
			return
		}

		key := stripQuery(abs)
		if seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, abs)
	})

	return candidates
}

func declaredDimensions(s *goquery.Selection, absURL string) (int, int) {
	var width, height int
	if v, ok := s.Attr("width"); ok {
		width, _ = strconv.Atoi(v)
	}
	if v, ok := s.Attr("height"); ok {
		height, _ = strconv.Atoi(v)
	}
	if width == 0 {
		if m := imgWidthParamRe.FindStringSubmatch(absURL); m != nil {
			width, _ = strconv.Atoi(m[1])
		}
	}
	return width, height
}

func absoluteURL(src string, base *url.URL) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return ""
		}
		return u.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func stripQuery(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func parseReviewQuotes(doc *goquery.Document) []string {
	var quotes []string
	doc.Find(`[class*="review"] p, [data-test-id*="review"] p, blockquote`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeWhitespace(s.Text())
		if len(text) < 20 || len(text) > 220 {
			return true
		}
		quotes = append(quotes, text)
		return len(quotes) < 3
	})
	return quotes
}
