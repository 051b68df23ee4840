package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when
// they are set and the matching flag was not given explicitly. Applied after
// ApplyFileConfig it gives the order flags > env > file > defaults.
func ApplyEnvOverrides(cfg *Config, set Explicit) {
	if cfg == nil {
		return
	}
	o := overlay{set: set}
	env := func(key string) string { return strings.TrimSpace(os.Getenv(key)) }

	o.str(&cfg.DocRoot, "doc-root", env("DOC_ROOT"))
	o.str(&cfg.ManifestPath, "manifest", env("MANIFEST"))
	o.str(&cfg.OutputDir, "out", env("OUTPUT_DIR"))
	o.str(&cfg.ReportDir, "report-dir", env("REPORT_DIR"))

	o.str(&cfg.IndexURL, "index.url", env("INDEX_URL"))
	o.str(&cfg.IndexUser, "index.user", env("INDEX_USER"))
	o.str(&cfg.IndexPassword, "index.password", env("INDEX_PASSWORD"))
	if n, err := strconv.Atoi(env("INDEX_ATTEMPTS")); err == nil {
		o.integer(&cfg.IndexAttempts, "index.attempts", n)
	}
	if d, err := time.ParseDuration(env("INDEX_DELAY")); err == nil {
		o.duration(&cfg.IndexDelay, "index.delay", d)
	}
	if f, err := strconv.ParseFloat(env("INDEX_RATE"), 64); err == nil {
		o.float(&cfg.IndexRate, "index.rate", f)
	}

	o.str(&cfg.EmbedBaseURL, "embed.base", env("EMBED_BASE_URL"))
	o.str(&cfg.EmbedModel, "embed.model", env("EMBED_MODEL"))
	o.str(&cfg.EmbedAPIKey, "embed.key", env("EMBED_API_KEY"))
	o.str(&cfg.QdrantAddr, "qdrant.addr", env("QDRANT_ADDR"))
	o.str(&cfg.QdrantCollection, "qdrant.collection", env("QDRANT_COLLECTION"))

	o.str(&cfg.ImageDir, "image.dir", env("IMAGE_DIR"))
	o.str(&cfg.ImageTag, "image.tag", env("IMAGE_TAG"))

	o.str(&cfg.CacheDir, "cache.dir", env("CACHE_DIR"))
	if d, err := time.ParseDuration(env("CACHE_MAX_AGE")); err == nil {
		o.duration(&cfg.CacheMaxAge, "cache.maxAge", d)
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, flag, key string) {
		var v bool
		switch strings.ToLower(env(key)) {
		case "1", "true", "yes", "on":
			v = true
		case "0", "false", "no", "off":
			v = false
		default:
			return
		}
		o.boolean(dst, flag, &v)
	}
	setBool(&cfg.Forward, "forward", "FORWARD")
	setBool(&cfg.Robots, "robots", "ROBOTS")
	setBool(&cfg.ReportPDF, "report.pdf", "REPORT_PDF")
	setBool(&cfg.CacheClear, "cache.clear", "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "cache.strictPerms", "CACHE_STRICT_PERMS")
	setBool(&cfg.Verbose, "verbose", "VERBOSE")
}
