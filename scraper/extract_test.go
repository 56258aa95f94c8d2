package scraper_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-importer/config"
	"tour-importer/models"
	"tour-importer/scraper"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Source: config.SourceConfig{Domain: "getyourguide.com", Platform: "GetYourGuide"},
		Images: config.ImagesConfig{MinWidth: 800, MinHeight: 500, JPEGQuality: 90, MaxCandidates: 6, MaxUploads: 5},
	}
}

const listingFixture = `<!DOCTYPE html>
<html>
<head><meta property="og:description" content="Fallback description from meta."></head>
<body>
  <h1>Rome Vespa Tour: Hidden Gems &amp; Highlights</h1>
  <div class="rating-summary">4.8 (1,234 reviews)</div>
  <div class="activity-price">From $89.00 per person</div>
  <div class="activity-duration">Duration: 2.5 hours</div>
  <section class="tour-description">
    Discover Rome from the saddle of a vintage Vespa with a local guide.
  </section>
  <section class="tour-highlights">
    <ul>
      <li>Ride past the Colosseum at sunset</li>
      <li>Cruise the Aventine Hill keyhole</li>
    </ul>
  </section>
  <section class="inclusions">
    <ul>
      <li>Helmet and insurance</li>
      <li>Hotel pickup</li>
    </ul>
  </section>
  <p>Free cancellation available. Small group experience. Skip the line at all stops.</p>
  <p>Live tour guide: English, Italian</p>
  <div class="gallery">
    <img src="https://cdn.example.com/tour/a.jpg?w=1200&v=1" width="1200" height="800">
    <img src="https://cdn.example.com/tour/a.jpg?w=1200&v=2" width="1200" height="800">
    <img src="https://cdn.example.com/tour/small.jpg" width="200" height="150">
    <img src="https://cdn.example.com/tour/portrait.jpg" width="800" height="1400">
    <img src="https://cdn.example.com/logo.png" width="1200" height="300">
    <img src="https://cdn.example.com/tour/b.jpg" width="1000" height="700">
  </div>
  <div class="review-card"><p>Best two hours of our whole trip, our guide was fantastic!</p></div>
  <div class="review-card"><p>Saw more in one morning than in two days of walking around.</p></div>
</body>
</html>`

const sourceURL = "https://www.getyourguide.com/rome-l33/vespa-tour-t123/?ranking_uuid=abc"

func TestExtractListingFields(t *testing.T) {
	record, err := scraper.Extract(listingFixture, sourceURL, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "Rome Vespa Tour: Hidden Gems & Highlights", record.Title)
	assert.Equal(t, 4.8, record.Rating)
	assert.Equal(t, 1234, record.ReviewCount)
	assert.Equal(t, 89.0, record.Price)
	assert.Equal(t, "USD", record.Currency)
	assert.Equal(t, "2.5 hours", record.Duration)
	assert.Contains(t, record.Description, "vintage Vespa")
	assert.Equal(t, "English, Italian", record.Language)
	assert.Equal(t, sourceURL, record.SourceURL)
}

func TestExtractFeatureFlags(t *testing.T) {
	record, err := scraper.Extract(listingFixture, sourceURL, testConfig())
	require.NoError(t, err)

	assert.True(t, record.FreeCancellation)
	assert.True(t, record.SkipTheLine)
	assert.True(t, record.SmallGroup)
	assert.False(t, record.WheelchairAccessible)
}

func TestExtractLists(t *testing.T) {
	record, err := scraper.Extract(listingFixture, sourceURL, testConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"Ride past the Colosseum at sunset", "Cruise the Aventine Hill keyhole"}, record.Highlights)
	assert.Equal(t, []string{"Helmet and insurance", "Hotel pickup"}, record.Includes)
	assert.Len(t, record.ReviewQuotes, 2)
}

func TestExtractImageCandidates(t *testing.T) {
	record, err := scraper.Extract(listingFixture, sourceURL, testConfig())
	require.NoError(t, err)

	// duplicate base URL deduped, small / extreme-portrait / logo dropped
	require.Len(t, record.ImageURLs, 2)
	assert.Equal(t, "https://cdn.example.com/tour/a.jpg?w=1200&v=1", record.ImageURLs[0])
	assert.Equal(t, "https://cdn.example.com/tour/b.jpg", record.ImageURLs[1])
}

func TestExtractImageCandidatesCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><h1>Tour</h1>")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, `<img src="https://cdn.example.com/tour/img-%d.jpg" width="1200" height="800">`, i)
	}
	b.WriteString("</body></html>")

	record, err := scraper.Extract(b.String(), sourceURL, testConfig())
	require.NoError(t, err)
	assert.Len(t, record.ImageURLs, 6)
}

func TestExtractDefaultsLanguageToEnglish(t *testing.T) {
	record, err := scraper.Extract("<html><body><h1>Tour</h1></body></html>", sourceURL, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "English", record.Language)
	assert.Empty(t, record.ImageURLs)
}

func TestExtractFailsWithoutTitle(t *testing.T) {
	_, err := scraper.Extract("<html><body><p>nothing here</p></body></html>", sourceURL, testConfig())
	assert.Error(t, err)
}

func TestScrapeRejectsForeignDomain(t *testing.T) {
	_, err := scraper.Scrape(context.Background(), "https://evil.example.com/rome-tour", testConfig())
	require.Error(t, err)
	var extractionErr *models.ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}

func TestScrapeRejectsMalformedURL(t *testing.T) {
	_, err := scraper.Scrape(context.Background(), "not a url", testConfig())
	assert.Error(t, err)
}
