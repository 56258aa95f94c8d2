package generator

import (
	"fmt"
	"strings"

	"tour-importer/models"
)

// promptSpecVersion tags the writing specification below. Bump it whenever
// the section skeleton or the metadata-line protocol changes, so published
// documents can be traced back to the prompt that produced them.
const promptSpecVersion = "v2"

const SYSTEM_INSTRUCTION = `
You are a senior travel copywriter for a scooter and Vespa sightseeing tour website.
You write vivid, concrete, trustworthy marketing articles about guided tours.
You never invent facts: every claim must come from the tour data in the prompt.
You write plain text with lightweight markdown only: "## " and "### " headings,
"- " bullet lines, "**bold**" spans and lines wrapped in double quotes for review quotes.
You follow the section skeleton and the metadata-line protocol in the prompt exactly.
`

// BuildPrompt embeds every extracted field plus the fixed writing spec:
// a 12-section skeleton in fixed order, per-section length ceilings, emoji
// rules, and five trailing machine-parsable metadata lines.
func BuildPrompt(record *models.RawTourRecord, city, siteName string) string {
	var b strings.Builder

	b.WriteString("Write a complete marketing article for the following tour, for publication on " + siteName + ".\n")
	b.WriteString("Writing specification " + promptSpecVersion + ".\n\n")

	b.WriteString("TOUR DATA\n")
	fmt.Fprintf(&b, "Title: %s\n", record.Title)
	if city != "" {
		fmt.Fprintf(&b, "City: %s\n", city)
	}
	if record.Rating > 0 {
		fmt.Fprintf(&b, "Rating: %.1f out of 5 (%d reviews)\n", record.Rating, record.ReviewCount)
	}
	if record.Price > 0 {
		fmt.Fprintf(&b, "Price: %.2f %s per person\n", record.Price, record.Currency)
	}
	if record.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", record.Duration)
	}
	fmt.Fprintf(&b, "Guide language: %s\n", record.Language)
	fmt.Fprintf(&b, "Free cancellation: %t / Skip the line: %t / Small group: %t / Wheelchair accessible: %t\n",
		record.FreeCancellation, record.SkipTheLine, record.SmallGroup, record.WheelchairAccessible)
	if record.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", record.Description)
	}
	if len(record.Highlights) > 0 {
		fmt.Fprintf(&b, "Highlights: %s\n", strings.Join(record.Highlights, "; "))
	}
	if len(record.Includes) > 0 {
		fmt.Fprintf(&b, "Included: %s\n", strings.Join(record.Includes, "; "))
	}
	for i, quote := range record.ReviewQuotes {
		fmt.Fprintf(&b, "Review %d: %s\n", i+1, quote)
	}

	b.WriteString(`
STRUCTURE (exactly these 12 sections, in this order)
1. Opening hook: at most 3 sentences, at most 1 emoji.
2. "## Why You'll Love This Tour": one paragraph, at most 4 sentences, no emoji.
3. "## Tour Highlights": 5 to 7 bullet lines, each may start with one emoji.
4. "## What's Included": bullet lines, one per included item, no emoji.
5. "## The Route": at most 2 paragraphs describing the itinerary, no emoji.
6. "## Meet Your Guide": one paragraph, at most 3 sentences, no emoji.
7. "## Key Facts": bullet lines in the form "- **Label:** value" covering duration, price, group size, language and cancellation.
8. "## What Travelers Say": each review quote on its own line wrapped in double quotes, at most 3 quotes.
9. "## Good To Know": at most 4 sentences on accessibility and practical tips, no emoji.
10. "## How To Book": at most 3 sentences ending in a call to action, at most 1 emoji.
11. "## FAQ": 3 or 4 pairs, the question as "**Q: question?**" on one line and the answer as "A: answer" on the next line.
12. Closing paragraph: at most 2 sentences, at most 1 emoji.

METADATA (after the article body, each on its own line, exactly this format)
TITLE: an alternative page title, at most 60 characters
H2: an alternative secondary title for the article header
SEO TITLE: a search engine title, at most 60 characters
SEO DESCRIPTION: a search engine description, at most 160 characters
KEYWORDS: 5 to 7 comma-separated keywords
`)

	return b.String()
}
