package images

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder

	"tour-importer/config"
	"tour-importer/models"
)

const downloadTimeout = 30 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// Normalize downloads each candidate URL, decodes it and re-encodes it to
// JPEG at fixed quality without resizing. A per-image failure is logged and
// skipped; the batch never aborts, so the result may be shorter than the
// input. Order mirrors the input order.
func Normalize(ctx context.Context, urls []string, tmpDir, altBase string, cfg config.ImagesConfig) []models.NormalizedImage {
	if len(urls) > cfg.MaxUploads {
		urls = urls[:cfg.MaxUploads]
	}

	client := &http.Client{Timeout: downloadTimeout}

	var normalized []models.NormalizedImage
	for i, imageURL := range urls {
		img, err := normalizeOne(ctx, client, imageURL, tmpDir, i, len(normalized)+1, altBase, cfg)
		if err != nil {
			config.Logger.Warnf("skipping image: %v", &models.ImageError{URL: imageURL, Err: err})
			continue
		}
		normalized = append(normalized, *img)
	}

	config.Logger.Infof("normalized %d of %d candidate images", len(normalized), len(urls))
	return normalized
}

func normalizeOne(ctx context.Context, client *http.Client, imageURL, tmpDir string, index, ordinal int, altBase string, cfg config.ImagesConfig) (*models.NormalizedImage, error) {
	// Unique per run and per index, so a single run never collides with itself.
	stamp := time.Now().UnixMilli()
	rawPath := filepath.Join(tmpDir, fmt.Sprintf("download-%d-%d", stamp, index))
	jpegPath := filepath.Join(tmpDir, fmt.Sprintf("normalized-%d-%d.jpg", stamp, index))
	defer os.Remove(rawPath)
	defer os.Remove(jpegPath)

	if err := download(ctx, client, imageURL, rawPath); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	f, err := os.Open(rawPath)
	if err != nil {
		return nil, err
	}
	decoded, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	bounds := decoded.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < cfg.MinWidth || height < cfg.MinHeight {
		// Small images are kept; the editor decides whether to drop them.
		config.Logger.Warnf("image below %dx%d (%dx%d, %s): %s", cfg.MinWidth, cfg.MinHeight, width, height, format, imageURL)
	}

	out, err := os.Create(jpegPath)
	if err != nil {
		return nil, err
	}
	if err := jpeg.Encode(out, decoded, &jpeg.Options{Quality: cfg.JPEGQuality}); err != nil {
		out.Close()
		return nil, fmt.Errorf("encode: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(jpegPath)
	if err != nil {
		return nil, err
	}

	return &models.NormalizedImage{
		Data:     data,
		Filename: fmt.Sprintf("tour-image-%d.jpg", ordinal),
		Width:    width,
		Height:   height,
		MIMEType: "image/jpeg",
		AltText:  fmt.Sprintf("%s photo %d", altBase, ordinal),
	}, nil
}

func download(ctx context.Context, client *http.Client, imageURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}
