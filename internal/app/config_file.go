package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/pdpextract/internal/keywords"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
	DocRoot   string `yaml:"docRoot" json:"docRoot"`
	Manifest  string `yaml:"manifest" json:"manifest"`
	Out       string `yaml:"out" json:"out"`
	ReportDir string `yaml:"reportDir" json:"reportDir"`
	UserAgent string `yaml:"userAgent" json:"userAgent"`
	Forward   *bool  `yaml:"forward" json:"forward"`
	Robots    *bool  `yaml:"robots" json:"robots"`

	Index struct {
		URL      string   `yaml:"url" json:"url"`
		User     string   `yaml:"user" json:"user"`
		Password string   `yaml:"password" json:"password"`
		Attempts int      `yaml:"attempts" json:"attempts"`
		Delay    Duration `yaml:"delay" json:"delay"`
		Rate     float64  `yaml:"rate" json:"rate"`
		Start    int      `yaml:"start" json:"start"`
	} `yaml:"index" json:"index"`

	Report struct {
		PDF *bool `yaml:"pdf" json:"pdf"`
	} `yaml:"report" json:"report"`

	Dataset struct {
		Dir  string `yaml:"dir" json:"dir"`
		Out  string `yaml:"out" json:"out"`
		Seed int64  `yaml:"seed" json:"seed"`
	} `yaml:"dataset" json:"dataset"`

	Embed struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"embed" json:"embed"`

	Qdrant struct {
		Addr       string `yaml:"addr" json:"addr"`
		Collection string `yaml:"collection" json:"collection"`
	} `yaml:"qdrant" json:"qdrant"`

	Keywords struct {
		Out      string           `yaml:"out" json:"out"`
		Limit    int              `yaml:"limit" json:"limit"`
		MinScore *float64         `yaml:"minScore" json:"minScore"`
		Batch    int              `yaml:"batch" json:"batch"`
		Queries  []keywords.Query `yaml:"queries" json:"queries"`
	} `yaml:"keywords" json:"keywords"`

	Image struct {
		Dir     string   `yaml:"dir" json:"dir"`
		Tag     string   `yaml:"tag" json:"tag"`
		Require []string `yaml:"require" json:"require"`
	} `yaml:"image" json:"image"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       *bool    `yaml:"clear" json:"clear"`
		StrictPerms *bool    `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Verbose *bool `yaml:"verbose" json:"verbose"`
}

// Duration is a time.Duration that decodes from a Go duration string
// ("3s", "36h") in both YAML and JSON. Plain JSON numbers are nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if nerr := json.Unmarshal(b, &n); nerr != nil {
			return fmt.Errorf("duration: %s is neither a string nor an integer", b)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v time.Duration
	if err := node.Decode(&v); err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Explicit reports whether a flag was set on the command line.
// *pflag.FlagSet implements it.
type Explicit interface {
	Changed(name string) bool
}

// overlay writes a value into cfg unless the named flag was set explicitly
// or the value is empty.
type overlay struct{ set Explicit }

func (o overlay) explicit(flag string) bool { return o.set != nil && o.set.Changed(flag) }

func (o overlay) str(dst *string, flag, v string) {
	if v != "" && !o.explicit(flag) {
		*dst = v
	}
}

func (o overlay) integer(dst *int, flag string, v int) {
	if v != 0 && !o.explicit(flag) {
		*dst = v
	}
}

func (o overlay) int64(dst *int64, flag string, v int64) {
	if v != 0 && !o.explicit(flag) {
		*dst = v
	}
}

func (o overlay) float(dst *float64, flag string, v float64) {
	if v != 0 && !o.explicit(flag) {
		*dst = v
	}
}

func (o overlay) floatPtr(dst *float64, flag string, v *float64) {
	if v != nil && !o.explicit(flag) {
		*dst = *v
	}
}

func (o overlay) duration(dst *time.Duration, flag string, v time.Duration) {
	if v != 0 && !o.explicit(flag) {
		*dst = v
	}
}

func (o overlay) boolean(dst *bool, flag string, v *bool) {
	if v != nil && !o.explicit(flag) {
		*dst = *v
	}
}

func (o overlay) list(dst *[]string, flag string, v []string) {
	if len(v) > 0 && !o.explicit(flag) {
		*dst = append([]string(nil), v...)
	}
}

// ApplyFileConfig overlays values from fc into cfg for every field whose
// flag was not set explicitly. Empty file values leave cfg unchanged.
func ApplyFileConfig(cfg *Config, fc FileConfig, set Explicit) {
	if cfg == nil {
		return
	}
	o := overlay{set: set}
	o.str(&cfg.DocRoot, "doc-root", fc.DocRoot)
	o.str(&cfg.ManifestPath, "manifest", fc.Manifest)
	o.str(&cfg.OutputDir, "out", fc.Out)
	o.str(&cfg.ReportDir, "report-dir", fc.ReportDir)
	o.str(&cfg.UserAgent, "user-agent", fc.UserAgent)
	o.boolean(&cfg.Forward, "forward", fc.Forward)
	o.boolean(&cfg.Robots, "robots", fc.Robots)

	o.str(&cfg.IndexURL, "index.url", fc.Index.URL)
	o.str(&cfg.IndexUser, "index.user", fc.Index.User)
	o.str(&cfg.IndexPassword, "index.password", fc.Index.Password)
	o.integer(&cfg.IndexAttempts, "index.attempts", fc.Index.Attempts)
	o.duration(&cfg.IndexDelay, "index.delay", time.Duration(fc.Index.Delay))
	o.float(&cfg.IndexRate, "index.rate", fc.Index.Rate)
	o.integer(&cfg.IndexStart, "start", fc.Index.Start)
	o.boolean(&cfg.ReportPDF, "report.pdf", fc.Report.PDF)

	o.str(&cfg.DatasetDir, "dataset.dir", fc.Dataset.Dir)
	o.str(&cfg.SplitDir, "dataset.out", fc.Dataset.Out)
	o.int64(&cfg.Seed, "seed", fc.Dataset.Seed)

	o.str(&cfg.EmbedBaseURL, "embed.base", fc.Embed.BaseURL)
	o.str(&cfg.EmbedModel, "embed.model", fc.Embed.Model)
	o.str(&cfg.EmbedAPIKey, "embed.key", fc.Embed.APIKey)
	o.str(&cfg.QdrantAddr, "qdrant.addr", fc.Qdrant.Addr)
	o.str(&cfg.QdrantCollection, "qdrant.collection", fc.Qdrant.Collection)
	o.str(&cfg.KeywordsOut, "keywords.out", fc.Keywords.Out)
	o.integer(&cfg.KeywordsLimit, "keywords.limit", fc.Keywords.Limit)
	o.floatPtr(&cfg.KeywordsMinScore, "keywords.minScore", fc.Keywords.MinScore)
	o.integer(&cfg.KeywordsBatch, "keywords.batch", fc.Keywords.Batch)
	if len(fc.Keywords.Queries) > 0 {
		cfg.Queries = append([]keywords.Query(nil), fc.Keywords.Queries...)
	}

	o.str(&cfg.ImageDir, "image.dir", fc.Image.Dir)
	o.str(&cfg.ImageTag, "image.tag", fc.Image.Tag)
	o.list(&cfg.ImageRequired, "image.require", fc.Image.Require)

	o.str(&cfg.CacheDir, "cache.dir", fc.Cache.Dir)
	o.duration(&cfg.CacheMaxAge, "cache.maxAge", time.Duration(fc.Cache.MaxAge))
	o.boolean(&cfg.CacheClear, "cache.clear", fc.Cache.Clear)
	o.boolean(&cfg.CacheStrictPerms, "cache.strictPerms", fc.Cache.StrictPerms)
	o.boolean(&cfg.Verbose, "verbose", fc.Verbose)
}
