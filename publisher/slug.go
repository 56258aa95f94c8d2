package publisher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

const maxSlugLen = 96

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the canonical URL slug from a title: emoji stripped,
// lowercased, runs of non-alphanumerics collapsed to single hyphens, edge
// hyphens trimmed, capped at 96 characters. Total and idempotent; no
// uniqueness check is performed here.
func Slugify(title string) string {
	s := gomoji.RemoveEmojis(title)
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}

// CleanSourceURL strips the marketplace's tracking parameters by cutting the
// URL at its query string.
func CleanSourceURL(sourceURL string) string {
	if i := strings.Index(sourceURL, "?"); i >= 0 {
		return sourceURL[:i]
	}
	return sourceURL
}

// AffiliateURL rebuilds the booking link with exactly the site's own two
// tracking parameters. Whatever parameters the source carried are discarded.
func AffiliateURL(sourceURL, partnerID, medium string) string {
	return CleanSourceURL(sourceURL) +
		"?partner_id=" + url.QueryEscape(partnerID) +
		"&utm_medium=" + url.QueryEscape(medium)
}
