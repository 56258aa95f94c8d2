package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

const DEFAULT_SCRAPE_DELAY_MS = 5000

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Source  SourceConfig  `yaml:"source"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Images  ImagesConfig  `yaml:"images"`
	Site    SiteConfig    `yaml:"site"`
	Cities  []string      `yaml:"cities"`

	Env EnvConfig `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes the third-party marketplace the extractor is allowed
// to scrape. URLs outside Domain are rejected before a browser is launched.
type SourceConfig struct {
	Domain   string `yaml:"domain"`
	Platform string `yaml:"platform"`
}

type GeminiConfig struct {
	Model           string `yaml:"model"`
	MaxOutputTokens int32  `yaml:"max_output_tokens"`
}

type ImagesConfig struct {
	MinWidth      int `yaml:"min_width"`
	MinHeight     int `yaml:"min_height"`
	JPEGQuality   int `yaml:"jpeg_quality"`
	MaxCandidates int `yaml:"max_candidates"`
	MaxUploads    int `yaml:"max_uploads"`
}

type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
	Name    string `yaml:"name"`
}

// EnvConfig carries secrets and per-run switches. Everything here comes from
// the environment (optionally via .env), never from config.yaml.
type EnvConfig struct {
	CMSProjectID string
	CMSDataset   string
	CMSToken     string
	GeminiAPIKey string

	AffiliatePartnerID string
	AffiliateMedium    string

	ScrapeDelay time.Duration
	DryRun      bool
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}

	var c AppConfig
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		panic(err)
	}

	c.applyDefaults()
	c.Env = loadEnv()

	// env wins over config.yaml for the site identity so a staging run can
	// point previews at a different host
	if v := os.Getenv("SITE_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("SITE_NAME"); v != "" {
		c.Site.Name = v
	}

	config = &c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// ValidateCredentials reports the fatal startup conditions: a run cannot do
// anything useful without the content store and the text-generation service.
func (c AppConfig) ValidateCredentials() error {
	if c.Env.CMSProjectID == "" || c.Env.CMSDataset == "" || c.Env.CMSToken == "" {
		return errors.New("content store credentials missing: set CMS_PROJECT_ID, CMS_DATASET and CMS_TOKEN")
	}
	if c.Env.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}

func (c *AppConfig) applyDefaults() {
	if c.Source.Domain == "" {
		c.Source.Domain = "getyourguide.com"
	}
	if c.Source.Platform == "" {
		c.Source.Platform = "GetYourGuide"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		c.Gemini.MaxOutputTokens = 4096
	}
	if c.Images.MinWidth <= 0 {
		c.Images.MinWidth = 800
	}
	if c.Images.MinHeight <= 0 {
		c.Images.MinHeight = 500
	}
	if c.Images.JPEGQuality <= 0 {
		c.Images.JPEGQuality = 90
	}
	if c.Images.MaxCandidates <= 0 {
		c.Images.MaxCandidates = 6
	}
	if c.Images.MaxUploads <= 0 {
		c.Images.MaxUploads = 5
	}
}

func loadEnv() EnvConfig {
	delay := time.Duration(DEFAULT_SCRAPE_DELAY_MS) * time.Millisecond
	if v := os.Getenv("SCRAPE_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			delay = time.Duration(ms) * time.Millisecond
		}
	}

	dryRun := false
	if v := os.Getenv("DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			dryRun = b
		}
	}

	return EnvConfig{
		CMSProjectID:       os.Getenv("CMS_PROJECT_ID"),
		CMSDataset:         os.Getenv("CMS_DATASET"),
		CMSToken:           os.Getenv("CMS_TOKEN"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		AffiliatePartnerID: os.Getenv("AFFILIATE_PARTNER_ID"),
		AffiliateMedium:    os.Getenv("AFFILIATE_MEDIUM"),
		ScrapeDelay:        delay,
		DryRun:             dryRun,
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
