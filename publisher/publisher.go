package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tour-importer/cms"
	"tour-importer/config"
	"tour-importer/models"
)

// Publisher turns a run's artifacts into one content-store document, or into
// a console preview when dry-run is on.
type Publisher struct {
	store *cms.Client
	cfg   config.AppConfig
}

func New(store *cms.Client, cfg config.AppConfig) *Publisher {
	return &Publisher{store: store, cfg: cfg}
}

// Publish assembles the document and commits it. In dry-run mode it performs
// zero store calls. In live mode assets are uploaded in image order (the
// first one is the hero) before the single document create; uploads are not
// rolled back when a later step fails.
func (p *Publisher) Publish(ctx context.Context, record *models.RawTourRecord, content *models.GeneratedContent, imgs []models.NormalizedImage) (*models.PublishResult, error) {
	slug := Slugify(content.Title)
	if slug == "" {
		slug = Slugify(record.Title)
	}
	if slug == "" {
		return nil, &models.PublishError{Op: "slug", Err: fmt.Errorf("title %q produced an empty slug", content.Title)}
	}

	siteURL := strings.TrimRight(p.cfg.Site.BaseURL, "/") + "/tours/" + slug
	affiliateURL := AffiliateURL(record.SourceURL, p.cfg.Env.AffiliatePartnerID, p.cfg.Env.AffiliateMedium)
	blocks := BlocksFromMarkdown(content.Body)

	if p.cfg.Env.DryRun {
		printPreview(record, content, imgs, slug, siteURL, affiliateURL, len(blocks))
		return &models.PublishResult{DryRun: true, Slug: slug, SiteURL: siteURL}, nil
	}

	assetIDs := make([]string, 0, len(imgs))
	imageRefs := make([]map[string]any, 0, len(imgs))
	for _, img := range imgs {
		assetID, err := p.store.UploadImageAsset(ctx, img.Data, img.Filename, img.MIMEType)
		if err != nil {
			return nil, &models.PublishError{
				Op:  fmt.Sprintf("asset upload (%d assets already uploaded, not rolled back: %v)", len(assetIDs), assetIDs),
				Err: err,
			}
		}
		assetIDs = append(assetIDs, assetID)
		imageRefs = append(imageRefs, map[string]any{
			"_type": "image",
			"_key":  strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
			"asset": map[string]any{"_type": "reference", "_ref": assetID},
			"alt":   img.AltText,
		})
	}

	doc := p.buildDocument(record, content, imageRefs, blocks, slug, affiliateURL)

	docID, err := p.store.CreateDocument(ctx, doc)
	if err != nil {
		return nil, &models.PublishError{
			Op:  fmt.Sprintf("document create (%d assets already uploaded, not rolled back: %v)", len(assetIDs), assetIDs),
			Err: err,
		}
	}

	return &models.PublishResult{
		DocumentID: docID,
		Slug:       slug,
		SiteURL:    siteURL,
		AssetIDs:   assetIDs,
	}, nil
}

func (p *Publisher) buildDocument(record *models.RawTourRecord, content *models.GeneratedContent, imageRefs []map[string]any, blocks []Block, slug, affiliateURL string) map[string]any {
	location := content.City
	if location == "" {
		location = "Italy"
	}

	guideLanguages := []string{}
	for _, lang := range strings.Split(record.Language, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			guideLanguages = append(guideLanguages, lang)
		}
	}

	doc := map[string]any{
		"_type":          "tour",
		"title":          content.Title,
		"bodyTitle":      content.BodyTitle,
		"originalTitle":  content.OriginalTitle,
		"slug":           map[string]any{"_type": "slug", "current": slug},
		"seoTitle":       content.SEOTitle,
		"seoDescription": content.SEODescription,
		"keywords":       content.Keywords,
		"images":         imageRefs,
		"body":           blocks,
		"tourInfo": map[string]any{
			"duration": record.Duration,
			"price":    record.Price,
			"currency": record.Currency,
			"location": location,
			"platform": p.cfg.Source.Platform,
		},
		"features": map[string]any{
			"freeCancellation":     record.FreeCancellation,
			"skipTheLine":          record.SkipTheLine,
			"smallGroup":           record.SmallGroup,
			"wheelchairAccessible": record.WheelchairAccessible,
			"guideLanguages":       guideLanguages,
		},
		"reviewData": map[string]any{
			"rating":      record.Rating,
			"reviewCount": record.ReviewCount,
			"lastUpdated": time.Now().UTC().Format(time.RFC3339),
		},
		"sourceUrl":    CleanSourceURL(record.SourceURL),
		"affiliateUrl": affiliateURL,
		"publishedAt":  time.Now().UTC().Format(time.RFC3339),
	}

	// the first image doubles as the hero/SEO image
	if len(imageRefs) > 0 {
		doc["heroImage"] = imageRefs[0]
	}

	return doc
}

func printPreview(record *models.RawTourRecord, content *models.GeneratedContent, imgs []models.NormalizedImage, slug, siteURL, affiliateURL string, blockCount int) {
	fmt.Println("================ DRY RUN: document preview ================")
	fmt.Printf("title:           %s\n", content.Title)
	fmt.Printf("slug:            %s\n", slug)
	fmt.Printf("city:            %s\n", content.City)
	fmt.Printf("seo title:       %s\n", content.SEOTitle)
	fmt.Printf("seo description: %s\n", content.SEODescription)
	fmt.Printf("keywords:        %s\n", strings.Join(content.Keywords, ", "))
	fmt.Printf("rating:          %.1f (%d reviews)\n", record.Rating, record.ReviewCount)
	fmt.Printf("price:           %.2f %s\n", record.Price, record.Currency)
	fmt.Printf("duration:        %s\n", record.Duration)
	fmt.Printf("body blocks:     %d\n", blockCount)
	fmt.Printf("images:          %d\n", len(imgs))
	for i, img := range imgs {
		fmt.Printf("  %d. %s (%dx%d, %d bytes)\n", i+1, img.Filename, img.Width, img.Height, len(img.Data))
	}
	fmt.Printf("site url:        %s\n", siteURL)
	fmt.Printf("source url:      %s\n", CleanSourceURL(record.SourceURL))
	fmt.Printf("affiliate url:   %s\n", affiliateURL)
	fmt.Println("no store writes were performed")
	fmt.Println("===========================================================")
}
