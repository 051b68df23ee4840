package app

import (
	"errors"
	"strings"
	"time"

	"github.com/hyperifyio/pdpextract/internal/keywords"
)

// Config holds runtime configuration for every subcommand.
type Config struct {
	// Extraction
	DocRoot      string
	ManifestPath string
	OutputDir    string
	ReportDir    string
	UserAgent    string
	Forward      bool
	// Robots makes remote fetches honour robots.txt.
	Robots bool

	// Indexing endpoint
	IndexURL      string
	IndexUser     string
	IndexPassword string
	IndexAttempts int
	IndexDelay    time.Duration
	// IndexRate caps requests per second; zero disables pacing.
	IndexRate  float64
	IndexStart int
	ReportPDF  bool

	// Dataset
	DatasetDir string
	SplitDir   string
	Seed       int64

	// Embeddings and vector store
	EmbedBaseURL     string
	EmbedModel       string
	EmbedAPIKey      string
	QdrantAddr       string
	QdrantCollection string
	KeywordsOut      string
	KeywordsLimit    int
	KeywordsMinScore float64
	KeywordsBatch    int
	Queries          []keywords.Query

	// Image
	ImageDir      string
	ImageTag      string
	ImageRequired []string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults used when neither flags, environment nor file set a value.
const (
	defaultDocRoot          = "htmls"
	defaultManifest         = "all_htmls.txt"
	defaultOutputDir        = "records"
	defaultReportDir        = "reports"
	defaultUserAgent        = "pdpextract/1.0"
	defaultDatasetDir       = "output"
	defaultSplitDir         = "."
	defaultQdrantAddr       = "localhost:6334"
	defaultQdrantCollection = "cat-keywords"
	defaultCacheDir         = ".pdpextract-cache"
)

// DefaultConfig returns the configuration used before any overlay.
func DefaultConfig() Config {
	return Config{
		DocRoot:          defaultDocRoot,
		ManifestPath:     defaultManifest,
		OutputDir:        defaultOutputDir,
		ReportDir:        defaultReportDir,
		UserAgent:        defaultUserAgent,
		Robots:           true,
		IndexAttempts:    3,
		IndexDelay:       5 * time.Second,
		DatasetDir:       defaultDatasetDir,
		SplitDir:         defaultSplitDir,
		QdrantAddr:       defaultQdrantAddr,
		QdrantCollection: defaultQdrantCollection,
		KeywordsOut:      defaultDatasetDir,
		KeywordsLimit:    keywords.DefaultLimit,
		KeywordsMinScore: keywords.DefaultMinScore,
		KeywordsBatch:    keywords.DefaultBatchSize,
		ImageDir:         "./src",
		ImageTag:         "query_intent:latest",
		CacheDir:         defaultCacheDir,
	}
}

// ValidateForward checks the settings the indexing endpoint needs.
func (c Config) ValidateForward() error {
	if strings.TrimSpace(c.IndexURL) == "" {
		return errors.New("config: index.url is required (or set INDEX_URL)")
	}
	if c.IndexAttempts < 1 {
		return errors.New("config: index.attempts must be at least 1")
	}
	if c.IndexStart < 0 {
		return errors.New("config: start position must not be negative")
	}
	return nil
}

// ValidateEmbeddings checks the settings the keyword tooling needs.
func (c Config) ValidateEmbeddings() error {
	if strings.TrimSpace(c.EmbedModel) == "" {
		return errors.New("config: embed.model is required (or set EMBED_MODEL)")
	}
	if strings.TrimSpace(c.QdrantAddr) == "" {
		return errors.New("config: qdrant.addr is required")
	}
	if c.KeywordsMinScore < 0 || c.KeywordsMinScore > 1 {
		return errors.New("config: keywords.minScore must be within [0,1]")
	}
	return nil
}
