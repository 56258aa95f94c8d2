package publisher_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tour-importer/publisher"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "rome-vespa-tour-hidden-gems", publisher.Slugify("🛵 Rome Vespa Tour: Hidden Gems"))
	assert.Equal(t, "florence-by-night", publisher.Slugify("  Florence -- by   Night!  "))
	assert.Equal(t, "tour", publisher.Slugify("TOUR"))
}

func TestSlugifyIdempotent(t *testing.T) {
	titles := []string{
		"🛵 Rome Vespa Tour: Hidden Gems",
		"Naples & Pompeii: Full-Day Trip (Lunch Included)",
		"Café crawl — Montmartre édition",
	}
	for _, title := range titles {
		once := publisher.Slugify(title)
		assert.Equal(t, once, publisher.Slugify(once))
	}
}

func TestSlugifyTotal(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	long := strings.Repeat("Rome Vespa ", 30)
	slug := publisher.Slugify(long)
	assert.LessOrEqual(t, len(slug), 96)
	assert.Regexp(t, valid, slug)
	assert.False(t, strings.HasPrefix(slug, "-"))
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestSlugifyEmptyAfterEmojiStrip(t *testing.T) {
	assert.Equal(t, "", publisher.Slugify("🛵🍕"))
	assert.Equal(t, "", publisher.Slugify(""))
	assert.Equal(t, "", publisher.Slugify("---"))
}

func TestCleanSourceURL(t *testing.T) {
	assert.Equal(t,
		"https://www.getyourguide.com/rome-l33/vespa-tour-t123/",
		publisher.CleanSourceURL("https://www.getyourguide.com/rome-l33/vespa-tour-t123/?ranking_uuid=abc&visitor_id=xyz"))
	assert.Equal(t,
		"https://www.getyourguide.com/rome-l33/vespa-tour-t123/",
		publisher.CleanSourceURL("https://www.getyourguide.com/rome-l33/vespa-tour-t123/"))
}

func TestAffiliateURLReplacesAllTracking(t *testing.T) {
	got := publisher.AffiliateURL("https://www.getyourguide.com/rome-l33/vespa-tour-t123/?ranking_uuid=abc&visitor_id=xyz", "SCOOTEROMA", "website")
	assert.Equal(t, "https://www.getyourguide.com/rome-l33/vespa-tour-t123/?partner_id=SCOOTEROMA&utm_medium=website", got)
}

func TestAffiliateURLPureInPath(t *testing.T) {
	a := publisher.AffiliateURL("https://www.getyourguide.com/rome-l33/t123/?a=1&b=2", "P", "m")
	b := publisher.AffiliateURL("https://www.getyourguide.com/rome-l33/t123/?completely=different", "P", "m")
	c := publisher.AffiliateURL("https://www.getyourguide.com/rome-l33/t123/", "P", "m")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}
