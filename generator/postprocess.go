package generator

import (
	"hash/fnv"
	"regexp"
	"strings"

	"tour-importer/models"
)

const maxTitleLen = 60
const maxSEODescriptionLen = 160

var (
	metaTitleRe    = regexp.MustCompile(`(?m)^TITLE:\s*(.+)\s*$`)
	metaH2Re       = regexp.MustCompile(`(?m)^H2:\s*(.+)\s*$`)
	metaSEOTitleRe = regexp.MustCompile(`(?m)^SEO TITLE:\s*(.+)\s*$`)
	metaSEODescRe  = regexp.MustCompile(`(?m)^SEO DESCRIPTION:\s*(.+)\s*$`)
	metaKeywordsRe = regexp.MustCompile(`(?m)^KEYWORDS:\s*(.+)\s*$`)

	asteriskBulletRe = regexp.MustCompile(`(?m)^(\s*)\*\s+`)
	codeFenceRe      = regexp.MustCompile("(?m)^```[a-z]*\\s*$\n?")
	blankRunRe       = regexp.MustCompile(`\n{3,}`)

	boldSpanRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicSpanRe = regexp.MustCompile(`\*([^*\n]+)\*`)

	// factLabelRe matches the "**Label:**" spans of the key-facts section.
	factLabelRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 /&'-]{0,30}:$`)
)

// DetectCity matches the title and source URL against the gazetteer. The
// first substring match wins; no match yields an empty city.
func DetectCity(title, sourceURL string, cities []string) string {
	haystack := strings.ToLower(title + " " + sourceURL)
	for _, city := range cities {
		if strings.Contains(haystack, strings.ToLower(city)) {
			return city
		}
	}
	return ""
}

// PostProcess extracts the trailing metadata lines from the raw model
// response, fills every missing field with its deterministic fallback, and
// cleans the remaining body. It never fails: a response with no recognizable
// structure is accepted as-is.
func PostProcess(raw string, record *models.RawTourRecord, city string) *models.GeneratedContent {
	body := strings.TrimSpace(raw)

	title := extractMeta(metaTitleRe, &body)
	bodyTitle := extractMeta(metaH2Re, &body)
	seoTitle := extractMeta(metaSEOTitleRe, &body)
	seoDescription := extractMeta(metaSEODescRe, &body)
	keywordsLine := extractMeta(metaKeywordsRe, &body)

	if title == "" {
		title = record.Title
	}
	title = truncate(title, maxTitleLen)

	if bodyTitle == "" {
		bodyTitle = record.Title
	}

	if seoTitle == "" {
		seoTitle = fallbackSEOTitle(title, city)
	}
	seoTitle = truncate(seoTitle, maxTitleLen)

	if seoDescription == "" {
		seoDescription = fallbackSEODescription(record, city)
	}
	seoDescription = truncate(seoDescription, maxSEODescriptionLen)

	keywords := splitKeywords(keywordsLine)
	if len(keywords) < 5 {
		keywords = fallbackKeywords(record, city)
	}

	return &models.GeneratedContent{
		Title:          title,
		BodyTitle:      bodyTitle,
		OriginalTitle:  record.Title,
		SEOTitle:       seoTitle,
		SEODescription: seoDescription,
		Keywords:       keywords,
		Body:           CleanBody(body),
		City:           city,
	}
}

// extractMeta pulls the first match out of the body and removes every
// occurrence of the line, so the metadata never leaks into the article.
func extractMeta(re *regexp.Regexp, body *string) string {
	m := re.FindStringSubmatch(*body)
	if m == nil {
		return ""
	}
	*body = strings.TrimSpace(re.ReplaceAllString(*body, ""))
	return strings.TrimSpace(m[1])
}

// CleanBody normalizes the model's markdown: asterisk bullets become dash
// bullets, code fences are dropped, and emphasis markers are stripped in a
// single pass that keeps the two protected span shapes intact, FAQ questions
// ("**Q: ...?**") and key-fact labels ("**Label:**").
func CleanBody(body string) string {
	body = codeFenceRe.ReplaceAllString(body, "")
	body = asteriskBulletRe.ReplaceAllString(body, "${1}- ")

	body = boldSpanRe.ReplaceAllStringFunc(body, func(match string) string {
		inner := match[2 : len(match)-2]
		if isProtectedSpan(inner) {
			return match
		}
		return inner
	})
	body = stripItalicsOutsideBold(body)

	body = blankRunRe.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

// stripItalicsOutsideBold removes single-asterisk emphasis everywhere except
// inside the surviving protected bold spans, whose own asterisks would
// otherwise be half-eaten.
func stripItalicsOutsideBold(s string) string {
	var out strings.Builder
	last := 0
	for _, loc := range boldSpanRe.FindAllStringIndex(s, -1) {
		out.WriteString(italicSpanRe.ReplaceAllString(s[last:loc[0]], "$1"))
		out.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	out.WriteString(italicSpanRe.ReplaceAllString(s[last:], "$1"))
	return out.String()
}

func isProtectedSpan(inner string) bool {
	if strings.HasPrefix(inner, "Q:") && strings.Contains(inner, "?") {
		return true
	}
	return factLabelRe.MatchString(inner)
}

func fallbackSEOTitle(title, city string) string {
	if city != "" {
		withSuffix := title + " | " + city + " Tours"
		if len([]rune(withSuffix)) <= maxTitleLen {
			return withSuffix
		}
	}
	return title
}

// hookBanks are grouped by tour category; the pick is a pure function of the
// title so repeated runs against the same listing produce the same copy.
var hookBanks = map[string][]string{
	"vespa": {
		"See the city the Italian way, from the saddle of a classic Vespa.",
		"Trade the tour bus for two wheels and a vintage Vespa.",
		"Cruise past the landmarks and the hidden corners on an iconic Vespa.",
	},
	"food": {
		"Taste your way across the city, one local stop at a time.",
		"A guided ride with the best food stops locals actually go to.",
	},
	"default": {
		"A guided sightseeing ride that covers more in hours than most see in days.",
		"Skip the crowds and see the highlights with a local guide.",
		"The relaxed way to cover the must-sees and the spots guidebooks miss.",
	},
}

func fallbackSEODescription(record *models.RawTourRecord, city string) string {
	bank := hookBanks["default"]
	lowerTitle := strings.ToLower(record.Title)
	if strings.Contains(lowerTitle, "vespa") || strings.Contains(lowerTitle, "scooter") {
		bank = hookBanks["vespa"]
	} else if strings.Contains(lowerTitle, "food") || strings.Contains(lowerTitle, "wine") {
		bank = hookBanks["food"]
	}

	h := fnv.New32a()
	h.Write([]byte(record.Title))
	hook := bank[int(h.Sum32())%len(bank)]

	var features []string
	if record.FreeCancellation {
		features = append(features, "free cancellation")
	}
	if record.SmallGroup {
		features = append(features, "small groups")
	}
	if record.SkipTheLine {
		features = append(features, "skip-the-line access")
	}
	clause := ""
	if len(features) > 0 {
		if len(features) > 2 {
			features = features[:2]
		}
		clause = " With " + strings.Join(features, " and ") + "."
	}

	cta := " Book your spot today!"
	if city != "" {
		cta = " Book your " + city + " tour today!"
	}

	return truncate(hook+clause+cta, maxSEODescriptionLen)
}

func fallbackKeywords(record *models.RawTourRecord, city string) []string {
	base := []string{"vespa tour", "scooter tour", "guided sightseeing", "vespa experience", "things to do"}
	if city != "" {
		base = append([]string{
			strings.ToLower(city) + " vespa tour",
			strings.ToLower(city) + " scooter tour",
			"things to do in " + strings.ToLower(city),
		}, base...)
	}
	if record.SmallGroup {
		base = append(base, "small group tour")
	}
	if len(base) > 7 {
		base = base[:7]
	}
	return base
}

func splitKeywords(line string) []string {
	if line == "" {
		return nil
	}
	var keywords []string
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	if len(keywords) > 7 {
		keywords = keywords[:7]
	}
	return keywords
}

// truncate returns s truncated to max runes.
func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
