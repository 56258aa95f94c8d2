package publisher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-importer/cms"
	"tour-importer/config"
	"tour-importer/models"
	"tour-importer/publisher"
)

func testConfig(dryRun bool) config.AppConfig {
	return config.AppConfig{
		Source: config.SourceConfig{Domain: "getyourguide.com", Platform: "GetYourGuide"},
		Site:   config.SiteConfig{BaseURL: "https://scooteroma.com", Name: "Scooteroma"},
		Env: config.EnvConfig{
			AffiliatePartnerID: "SCOOTEROMA",
			AffiliateMedium:    "website",
			DryRun:             dryRun,
		},
	}
}

func testRecord() *models.RawTourRecord {
	return &models.RawTourRecord{
		Title:       "🛵 Rome Vespa Tour: Hidden Gems",
		Rating:      4.8,
		ReviewCount: 1234,
		Price:       89,
		Currency:    "USD",
		Duration:    "2.5 hours",
		Language:    "English, Italian",
		SourceURL:   "https://www.getyourguide.com/rome-l33/vespa-tour-t123/?ranking_uuid=abc",
	}
}

func testContent() *models.GeneratedContent {
	return &models.GeneratedContent{
		Title:          "Rome by Vespa: Hidden Gems Tour",
		BodyTitle:      "See Rome From the Saddle",
		OriginalTitle:  "🛵 Rome Vespa Tour: Hidden Gems",
		SEOTitle:       "Rome Vespa Tour | Rome Tours",
		SEODescription: "Ride a vintage Vespa through Rome with a local guide.",
		Keywords:       []string{"rome vespa tour", "scooter tour", "things to do in rome"},
		Body:           "## Why You'll Love This Tour\n\nRide a **vintage Vespa** through Rome.",
		City:           "Rome",
	}
}

func TestPublishDryRunMakesNoStoreCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := cms.NewClientWithBaseURL(server.URL, "production", "token")
	pub := publisher.New(store, testConfig(true))

	imgs := []models.NormalizedImage{{Data: []byte("jpeg"), Filename: "tour-image-1.jpg", Width: 1200, Height: 800, MIMEType: "image/jpeg"}}
	result, err := pub.Publish(context.Background(), testRecord(), testContent(), imgs)

	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, "rome-by-vespa-hidden-gems-tour", result.Slug)
	assert.Equal(t, "https://scooteroma.com/tours/rome-by-vespa-hidden-gems-tour", result.SiteURL)
	assert.Equal(t, int32(0), calls.Load(), "dry run must not contact the content store")
}

func TestPublishLiveUploadsAssetsInOrder(t *testing.T) {
	var uploadedFilenames []string
	var createdDoc map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/assets/images/"):
			uploadedFilenames = append(uploadedFilenames, r.URL.Query().Get("filename"))
			json.NewEncoder(w).Encode(map[string]any{
				"document": map[string]any{"_id": "image-asset-" + r.URL.Query().Get("filename")},
			})
		case strings.Contains(r.URL.Path, "/data/mutate/"):
			var req struct {
				Mutations []map[string]any `json:"mutations"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Mutations, 1)
			createdDoc = req.Mutations[0]["create"].(map[string]any)
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{"id": "tour-doc-1"}},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store := cms.NewClientWithBaseURL(server.URL, "production", "token")
	pub := publisher.New(store, testConfig(false))

	imgs := []models.NormalizedImage{
		{Data: []byte("a"), Filename: "tour-image-1.jpg", MIMEType: "image/jpeg"},
		{Data: []byte("b"), Filename: "tour-image-2.jpg", MIMEType: "image/jpeg"},
	}
	result, err := pub.Publish(context.Background(), testRecord(), testContent(), imgs)

	require.NoError(t, err)
	assert.Equal(t, "tour-doc-1", result.DocumentID)
	assert.Equal(t, []string{"tour-image-1.jpg", "tour-image-2.jpg"}, uploadedFilenames)
	assert.Len(t, result.AssetIDs, 2)

	require.NotNil(t, createdDoc)
	assert.Equal(t, "tour", createdDoc["_type"])
	assert.Equal(t, "Rome by Vespa: Hidden Gems Tour", createdDoc["title"])
	assert.Equal(t, "https://www.getyourguide.com/rome-l33/vespa-tour-t123/", createdDoc["sourceUrl"])
	assert.Equal(t, "https://www.getyourguide.com/rome-l33/vespa-tour-t123/?partner_id=SCOOTEROMA&utm_medium=website", createdDoc["affiliateUrl"])

	// first image doubles as the hero
	hero := createdDoc["heroImage"].(map[string]any)
	heroRef := hero["asset"].(map[string]any)["_ref"]
	assert.Equal(t, "image-asset-tour-image-1.jpg", heroRef)
}

func TestPublishLiveDocumentCreateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/assets/images/") {
			json.NewEncoder(w).Encode(map[string]any{"document": map[string]any{"_id": "image-asset-1"}})
			return
		}
		http.Error(w, "dataset quota exceeded", http.StatusConflict)
	}))
	defer server.Close()

	store := cms.NewClientWithBaseURL(server.URL, "production", "token")
	pub := publisher.New(store, testConfig(false))

	imgs := []models.NormalizedImage{{Data: []byte("a"), Filename: "tour-image-1.jpg", MIMEType: "image/jpeg"}}
	_, err := pub.Publish(context.Background(), testRecord(), testContent(), imgs)

	require.Error(t, err)
	var publishErr *models.PublishError
	require.ErrorAs(t, err, &publishErr)
	// orphaned assets are reported, not rolled back
	assert.Contains(t, publishErr.Op, "image-asset-1")
}
