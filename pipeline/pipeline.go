package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"tour-importer/cms"
	"tour-importer/config"
	"tour-importer/generator"
	"tour-importer/images"
	"tour-importer/models"
	"tour-importer/publisher"
	"tour-importer/scraper"
)

// Run executes the four stages for one listing URL: Extract, NormalizeImages,
// Synthesize, Publish, then Cleanup. Strictly sequential, single-shot, no
// retries: a failed run is re-invoked manually with the same URL. The scratch
// directory is removed on both the success and the failure path.
func Run(ctx context.Context, listingURL string, cfg config.AppConfig) (err error) {
	tmpDir, err := os.MkdirTemp("", "tour-import-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			config.Logger.Warnf("cleanup: could not remove %s: %v", tmpDir, rmErr)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "================ IMPORT FAILED ================")
			fmt.Fprintln(os.Stderr, err.Error())
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
		}
	}()

	// Stage 1: Extract
	config.Logger.Infof("stage 1/4 extract: %s", listingURL)
	start := time.Now()
	record, err := scraper.Scrape(ctx, listingURL, cfg)
	if err != nil {
		return err
	}
	if len(record.ImageURLs) == 0 {
		return &models.ExtractionError{URL: listingURL, Err: errors.New("listing yielded no image candidates")}
	}
	config.Logger.Infof("extracted %q (rating=%.1f reviews=%d images=%d) in %s",
		record.Title, record.Rating, record.ReviewCount, len(record.ImageURLs), time.Since(start).Round(time.Millisecond))

	// Stage 2: NormalizeImages
	config.Logger.Infof("stage 2/4 normalize images: %d candidates", len(record.ImageURLs))
	imgs := images.Normalize(ctx, record.ImageURLs, tmpDir, record.Title, cfg.Images)
	if len(imgs) < cfg.Images.MaxUploads {
		config.Logger.Warnf("only %d of %d images normalized; continuing", len(imgs), cfg.Images.MaxUploads)
	}

	// Stage 3: Synthesize
	config.Logger.Infof("stage 3/4 synthesize copy")
	content, err := generator.Generate(ctx, record, cfg)
	if err != nil {
		return err
	}

	// Stage 4: Publish
	mode := "live"
	if cfg.Env.DryRun {
		mode = "dry-run"
	}
	config.Logger.Infof("stage 4/4 publish (%s)", mode)
	store := cms.NewClient(cfg.Env.CMSProjectID, cfg.Env.CMSDataset, cfg.Env.CMSToken)
	result, err := publisher.New(store, cfg).Publish(ctx, record, content, imgs)
	if err != nil {
		return err
	}

	printSummary(record, content, imgs, result)
	return nil
}

func printSummary(record *models.RawTourRecord, content *models.GeneratedContent, imgs []models.NormalizedImage, result *models.PublishResult) {
	fmt.Println("================ IMPORT COMPLETE ================")
	fmt.Printf("title:     %s\n", content.Title)
	fmt.Printf("city:      %s\n", content.City)
	fmt.Printf("rating:    %.1f (%d reviews)\n", record.Rating, record.ReviewCount)
	fmt.Printf("price:     %.2f %s\n", record.Price, record.Currency)
	fmt.Printf("duration:  %s\n", record.Duration)
	fmt.Printf("images:    %d\n", len(imgs))
	fmt.Printf("seo title: %s\n", content.SEOTitle)
	fmt.Printf("keywords:  %s\n", strings.Join(content.Keywords, ", "))
	fmt.Printf("site url:  %s\n", result.SiteURL)
	if result.DryRun {
		fmt.Println("mode:      dry run, nothing was written to the content store")
		return
	}
	fmt.Printf("document:  %s\n", result.DocumentID)
	fmt.Println()
	fmt.Println("next steps for the editor:")
	fmt.Println("  - the document has no destination category yet; assign one in the studio")
	fmt.Println("  - review the generated copy and the hero image before the page goes live")
}
