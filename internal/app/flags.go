package app

import (
	"github.com/spf13/pflag"
)

// BindFlags registers every configuration flag on fs, writing into cfg.
// Flag defaults are taken from cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DocRoot, "doc-root", cfg.DocRoot, "Directory manifest entries are resolved against")
	fs.StringVar(&cfg.ManifestPath, "manifest", cfg.ManifestPath, "Manifest file with one document path or URL per line")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory section records are written to")
	fs.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "Directory execution reports are written to")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent for fetching remote pages")
	fs.BoolVar(&cfg.Robots, "robots", cfg.Robots, "Honour robots.txt when fetching remote pages")
	fs.BoolVar(&cfg.Forward, "forward", cfg.Forward, "Forward records to the indexing endpoint while extracting")

	fs.StringVar(&cfg.IndexURL, "index.url", cfg.IndexURL, "Indexing endpoint URL")
	fs.StringVar(&cfg.IndexUser, "index.user", cfg.IndexUser, "Indexing endpoint basic-auth user")
	fs.StringVar(&cfg.IndexPassword, "index.password", cfg.IndexPassword, "Indexing endpoint basic-auth password")
	fs.IntVar(&cfg.IndexAttempts, "index.attempts", cfg.IndexAttempts, "Attempts per document including the first")
	fs.DurationVar(&cfg.IndexDelay, "index.delay", cfg.IndexDelay, "Fixed delay between attempts")
	fs.Float64Var(&cfg.IndexRate, "index.rate", cfg.IndexRate, "Maximum requests per second (0 disables pacing)")
	fs.IntVar(&cfg.IndexStart, "start", cfg.IndexStart, "Directory position to resume forwarding from")
	fs.BoolVar(&cfg.ReportPDF, "report.pdf", cfg.ReportPDF, "Also render the execution report as PDF")

	fs.StringVar(&cfg.DatasetDir, "dataset.dir", cfg.DatasetDir, "Directory of labeled CSV files to split")
	fs.StringVar(&cfg.SplitDir, "dataset.out", cfg.SplitDir, "Directory the training/validation/test files live in")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Shuffle seed (0 seeds from the clock)")

	fs.StringVar(&cfg.EmbedBaseURL, "embed.base", cfg.EmbedBaseURL, "OpenAI-compatible embeddings base URL")
	fs.StringVar(&cfg.EmbedModel, "embed.model", cfg.EmbedModel, "Embedding model name")
	fs.StringVar(&cfg.EmbedAPIKey, "embed.key", cfg.EmbedAPIKey, "API key for the embeddings endpoint")
	fs.StringVar(&cfg.QdrantAddr, "qdrant.addr", cfg.QdrantAddr, "Qdrant gRPC address")
	fs.StringVar(&cfg.QdrantCollection, "qdrant.collection", cfg.QdrantCollection, "Qdrant collection for keywords")
	fs.StringVar(&cfg.KeywordsOut, "keywords.out", cfg.KeywordsOut, "Directory label CSV files are written to")
	fs.IntVar(&cfg.KeywordsLimit, "keywords.limit", cfg.KeywordsLimit, "Nearest neighbours requested per label query")
	fs.Float64Var(&cfg.KeywordsMinScore, "keywords.minScore", cfg.KeywordsMinScore, "Minimum similarity score kept")
	fs.IntVar(&cfg.KeywordsBatch, "keywords.batch", cfg.KeywordsBatch, "Keywords embedded per request")

	fs.StringVar(&cfg.ImageDir, "image.dir", cfg.ImageDir, "Image build context directory")
	fs.StringVar(&cfg.ImageTag, "image.tag", cfg.ImageTag, "Image name:tag")
	fs.StringSliceVar(&cfg.ImageRequired, "image.require", cfg.ImageRequired, "Entries that must exist in the build context besides the Dockerfile")

	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Cache directory path")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Purge cache entries older than this before a run (0 disables)")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", cfg.CacheClear, "Clear the cache directory before a run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", cfg.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging")
}
