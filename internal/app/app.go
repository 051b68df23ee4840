package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/pdpextract/internal/batch"
	"github.com/hyperifyio/pdpextract/internal/budget"
	"github.com/hyperifyio/pdpextract/internal/cache"
	"github.com/hyperifyio/pdpextract/internal/dataset"
	"github.com/hyperifyio/pdpextract/internal/embed"
	"github.com/hyperifyio/pdpextract/internal/extract"
	"github.com/hyperifyio/pdpextract/internal/fetch"
	"github.com/hyperifyio/pdpextract/internal/forward"
	"github.com/hyperifyio/pdpextract/internal/image"
	"github.com/hyperifyio/pdpextract/internal/keywords"
	"github.com/hyperifyio/pdpextract/internal/report"
	"github.com/hyperifyio/pdpextract/internal/robots"
	"github.com/hyperifyio/pdpextract/internal/sink"
	"github.com/hyperifyio/pdpextract/internal/vectorstore"
)

// App wires configuration to the pipeline components.
type App struct {
	cfg        Config
	httpClient *http.Client
}

// New prepares the application. It applies the cache policy (clear, purge)
// once so every subcommand sees the same cache state.
func New(cfg Config) (*App, error) {
	a := &App{cfg: cfg, httpClient: newHTTPClient()}
	if cfg.CacheDir == "" {
		return a, nil
	}
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
		log.Info().Str("dir", cfg.CacheDir).Msg("cache cleared")
	}
	if cfg.CacheMaxAge > 0 {
		n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
		if err != nil {
			return nil, fmt.Errorf("purge cache: %w", err)
		}
		if n > 0 {
			log.Info().Int("removed", n).Dur("maxAge", cfg.CacheMaxAge).Msg("cache purged")
		}
	}
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

func (a *App) pageCache() *cache.PageCache {
	if a.cfg.CacheDir == "" {
		return nil
	}
	return &cache.PageCache{Dir: filepath.Join(a.cfg.CacheDir, "pages"), StrictPerms: a.cfg.CacheStrictPerms}
}

func (a *App) forwarder() *forward.Client {
	c := &forward.Client{
		URL:        a.cfg.IndexURL,
		Username:   a.cfg.IndexUser,
		Password:   a.cfg.IndexPassword,
		HTTPClient: a.httpClient,
		Attempts:   a.cfg.IndexAttempts,
		Delay:      a.cfg.IndexDelay,
	}
	if a.cfg.IndexRate > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(a.cfg.IndexRate), 1)
	}
	return c
}

func (a *App) fetcher() *fetch.Client {
	c := &fetch.Client{
		HTTPClient:        a.httpClient,
		UserAgent:         a.cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: 30 * time.Second,
		Cache:             a.pageCache(),
	}
	if a.cfg.Robots {
		c.Robots = &robots.Policy{HTTPClient: a.httpClient, UserAgent: a.cfg.UserAgent, Cache: a.pageCache()}
	}
	return c
}

// ExtractResult bundles the batch outcome with the run diagnostics.
type ExtractResult struct {
	batch.Result
	Diagnostics  extract.Diagnostics
	ManifestPath string
}

// Extract runs the manifest through extraction and the file sink, and
// forwards records when configured. A run manifest is written to the report
// directory.
func (a *App) Extract(ctx context.Context) (ExtractResult, error) {
	var res ExtractResult
	entries, err := batch.ReadManifest(a.cfg.ManifestPath)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	started := time.Now()
	d := &batch.Driver{
		DocRoot:   a.cfg.DocRoot,
		Extractor: extract.PageExtractor{Diag: &res.Diagnostics},
		Sink:      sink.FileSink{Dir: a.cfg.OutputDir},
		Fetcher:   a.fetcher(),
	}
	if a.cfg.Forward {
		if err := a.cfg.ValidateForward(); err != nil {
			return res, err
		}
		d.Forwarder = a.forwarder()
	}

	res.Result, err = d.Run(ctx, entries)
	logDiagnostics(res.Diagnostics, a.cfg.EmbedModel)
	if path, werr := writeRunManifest(a.cfg, started, res.Result, res.Diagnostics); werr != nil {
		log.Warn().Err(werr).Msg("write run manifest")
	} else {
		res.ManifestPath = path
	}
	return res, err
}

func logDiagnostics(d extract.Diagnostics, model string) {
	for _, is := range d.Issues {
		log.Warn().Str("url", is.URL).Str("section", string(is.Section)).Msg(is.Detail)
	}
	if d.Longest.Length > 0 {
		log.Info().
			Str("url", d.Longest.URL).
			Str("type", string(d.Longest.Type)).
			Int("chars", d.Longest.Length).
			Int("tokens", budget.EstimateTokensFromChars(d.Longest.Length)).
			Msg("longest embedding input")
		if !budget.Fits(model, d.Longest.Length) {
			log.Warn().
				Str("model", model).
				Int("limit", budget.InputTokens(model)).
				Msg("longest embedding input may exceed the model input window")
		}
	}
}

// ForwardResult is the outcome of Forward.
type ForwardResult struct {
	forward.Run
	ReportPath   string
	FailuresPath string
}

// Forward sends the record files of the output directory to the indexing
// endpoint and writes the execution report.
func (a *App) Forward(ctx context.Context) (ForwardResult, error) {
	var res ForwardResult
	if err := a.cfg.ValidateForward(); err != nil {
		return res, err
	}
	run, err := forward.IndexDirectory(ctx, a.forwarder(), a.cfg.OutputDir, a.cfg.IndexStart)
	res.Run = run
	if err != nil {
		return res, err
	}
	exec := report.Execution{Start: run.Start, End: run.End, Failed: len(run.Failures)}
	if res.ReportPath, err = report.Write(a.cfg.ReportDir, exec); err != nil {
		return res, err
	}
	log.Info().Str("path", res.ReportPath).Msg("execution report saved")
	if len(run.Failures) > 0 {
		res.FailuresPath = filepath.Join(a.cfg.ReportDir, "failed_"+run.End.Format("20060102150405")+".txt")
		if err := report.WriteFailures(res.FailuresPath, run.Failures); err != nil {
			return res, err
		}
	}
	if a.cfg.ReportPDF {
		pdfPath := res.ReportPath[:len(res.ReportPath)-len(filepath.Ext(res.ReportPath))] + ".pdf"
		if err := report.WritePDF(pdfPath, "Indexing run", exec, run.Failures); err != nil {
			return res, fmt.Errorf("write pdf report: %w", err)
		}
	}
	return res, nil
}

// Split runs the dataset split.
func (a *App) Split() (dataset.SplitResult, error) {
	return dataset.Split(dataset.SplitOptions{InputDir: a.cfg.DatasetDir, OutputDir: a.cfg.SplitDir, Seed: a.cfg.Seed})
}

// Audit reports duplicates in the split files to w.
func (a *App) Audit(w io.Writer) (dataset.Report, error) {
	rep, err := dataset.Audit(a.cfg.SplitDir)
	if err != nil {
		return rep, err
	}
	_, err = rep.WriteTo(w)
	return rep, err
}

func (a *App) keywordService() (*keywords.Service, io.Closer, error) {
	if err := a.cfg.ValidateEmbeddings(); err != nil {
		return nil, nil, err
	}
	var emb embed.Embedder = embed.NewOpenAI(a.cfg.EmbedAPIKey, a.cfg.EmbedBaseURL, a.cfg.EmbedModel, func(c *openai.ClientConfig) {
		c.HTTPClient = a.httpClient
	})
	if a.cfg.CacheDir != "" {
		emb = &embed.CachedEmbedder{
			Inner: emb,
			Cache: &cache.EmbeddingCache{Dir: filepath.Join(a.cfg.CacheDir, "embeddings"), StrictPerms: a.cfg.CacheStrictPerms},
			Model: a.cfg.EmbedModel,
		}
	}
	store, err := vectorstore.New(a.cfg.QdrantAddr, a.cfg.QdrantCollection)
	if err != nil {
		return nil, nil, err
	}
	minScore := float32(a.cfg.KeywordsMinScore)
	return &keywords.Service{
		Embedder:  emb,
		Store:     store,
		BatchSize: a.cfg.KeywordsBatch,
		Limit:     a.cfg.KeywordsLimit,
		MinScore:  &minScore,
		Queries:   a.cfg.Queries,
	}, store, nil
}

// KeywordsIndex embeds and stores the keywords listed in path.
func (a *App) KeywordsIndex(ctx context.Context, path string) (int, error) {
	svc, closer, err := a.keywordService()
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return svc.Index(ctx, path)
}

// KeywordsGenerate writes the per-label CSV files.
func (a *App) KeywordsGenerate(ctx context.Context) (map[string]int, error) {
	svc, closer, err := a.keywordService()
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return svc.Generate(ctx, a.cfg.KeywordsOut)
}

// ImageCheck reports the container engine version.
func (a *App) ImageCheck(ctx context.Context) (string, error) {
	b, err := image.NewBuilder(a.cfg.ImageRequired, nil)
	if err != nil {
		return "", err
	}
	defer b.Close()
	return b.Check(ctx)
}

// ImageBuild builds the configured image, streaming progress to out.
func (a *App) ImageBuild(ctx context.Context, out io.Writer) error {
	b, err := image.NewBuilder(a.cfg.ImageRequired, out)
	if err != nil {
		return err
	}
	defer b.Close()
	if _, err := b.Check(ctx); err != nil {
		return err
	}
	return b.Build(ctx, a.cfg.ImageDir, a.cfg.ImageTag)
}
