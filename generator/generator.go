package generator

import (
	"context"
	"time"

	"google.golang.org/genai"

	"tour-importer/config"
	"tour-importer/models"
)

// Generate composes the writing prompt for a scraped tour, makes one
// text-generation call and post-processes the response into GeneratedContent.
// The call is never retried and the response is never streamed. A transport
// failure is a SynthesisError; malformed content is not, the fallbacks absorb it.
func Generate(ctx context.Context, record *models.RawTourRecord, cfg config.AppConfig) (*models.GeneratedContent, error) {
	city := DetectCity(record.Title, record.SourceURL, cfg.Cities)
	prompt := BuildPrompt(record, city, cfg.Site.Name)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.Env.GeminiAPIKey,
	})
	if err != nil {
		return nil, &models.SynthesisError{Err: err}
	}

	start := time.Now()
	result, err := client.Models.GenerateContent(
		ctx,
		cfg.Gemini.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SYSTEM_INSTRUCTION}}},
			MaxOutputTokens:   cfg.Gemini.MaxOutputTokens,
		},
	)
	if err != nil {
		return nil, &models.SynthesisError{Err: err}
	}

	config.Logger.Infof("generated article copy in %s (model=%s)", time.Since(start).Round(time.Millisecond), cfg.Gemini.Model)

	return PostProcess(result.Text(), record, city), nil
}
