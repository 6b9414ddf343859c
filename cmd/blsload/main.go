// Command blsload fetches a survey from the flat-file archive and writes
// the joined table as CSV, printing a diagnostics summary to stderr.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/statforge/blsload/internal/cache"
	"github.com/statforge/blsload/internal/config"
	"github.com/statforge/blsload/internal/dataset"
	"github.com/statforge/blsload/internal/export"
	"github.com/statforge/blsload/internal/flatfile"
	"github.com/statforge/blsload/internal/pkg/logger"
	"github.com/statforge/blsload/internal/releases"
	"github.com/statforge/blsload/internal/report"
)

func main() {
	var (
		surveyID    = flag.String("survey", "", "survey ID to load (e.g. ln, cu, ce, ap)")
		outPath     = flag.String("out", "", "write the joined table as CSV to this path (default: summary only)")
		strict      = flag.Bool("strict", false, "treat auxiliary fetch failures as fatal")
		listFlag    = flag.Bool("list", false, "list available surveys and exit")
		releaseFlag = flag.Bool("releases", false, "list recent news releases and exit")
		exportFlag  = flag.Bool("export", false, "export the joined table to Postgres (requires export config)")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fail("config: %v", err)
	}
	ctx := context.Background()

	if *listFlag {
		for _, s := range dataset.Catalog(cfg.Archive.BaseURL) {
			fmt.Printf("%-4s %s (%d files)\n", s.ID, s.Name, len(s.Files))
		}
		return
	}

	if *releaseFlag {
		lookback := time.Duration(cfg.Releases.LookbackDays) * 24 * time.Hour
		items, err := releases.Recent(ctx, cfg.Releases.FeedURL, lookback)
		if err != nil {
			fail("releases: %v", err)
		}
		for _, r := range items {
			fmt.Printf("%s  %s\n", r.PublishedAt.Format("2006-01-02"), r.Title)
		}
		return
	}

	if *surveyID == "" {
		flag.Usage()
		os.Exit(2)
	}

	survey, ok := dataset.LookupSurvey(cfg.Archive.BaseURL, *surveyID)
	if !ok {
		fail("unknown survey %q (use -list)", *surveyID)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		fail("cache: %v", err)
	}

	fopts := []flatfile.Option{flatfile.WithScratchDir(cfg.Archive.ScratchDir)}
	if store != nil {
		fopts = append(fopts, flatfile.WithCache(store))
	}
	if cfg.Archive.DisableFallback {
		fopts = append(fopts, flatfile.WithoutFallback())
	}
	collector := dataset.NewCollector(flatfile.NewFetcher(fopts...))

	opts := survey.Options
	opts.StrictAux = *strict
	collection, err := collector.Collect(ctx, survey.Files, opts)
	if err != nil {
		fail("collect: %v", err)
	}

	summary, err := report.Summary(collection)
	if err == nil {
		fmt.Fprintln(os.Stderr, summary)
	}

	if *outPath != "" {
		if err := writeCSV(*outPath, collection); err != nil {
			fail("write csv: %v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
	}

	if *exportFlag {
		if !cfg.Export.Enabled {
			fail("export requested but not enabled in config")
		}
		db, err := sql.Open("postgres", cfg.Export.DatabaseURL)
		if err != nil {
			fail("export: %v", err)
		}
		defer db.Close()
		exp := export.NewExporter(db, cfg.Export.Table)
		if err := exp.EnsureSchema(ctx); err != nil {
			fail("export: %v", err)
		}
		n, err := exp.Export(ctx, collection)
		if err != nil {
			fail("export: %v", err)
		}
		fmt.Fprintf(os.Stderr, "exported %d rows\n", n)
	}
}

func writeCSV(path string, c *dataset.Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(c.Data.Columns); err != nil {
		return err
	}
	for _, row := range c.Data.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func buildStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "disk":
		return cache.NewDiskStore(cfg.Cache.Dir)
	case "redis":
		store := cache.NewRedisStore(cfg.Cache.RedisAddr,
			time.Duration(cfg.Cache.RedisTTLMinutes)*time.Minute)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		return store, nil
	case "s3":
		return cache.NewS3Store(ctx, cfg.Cache.S3Bucket, cfg.Cache.S3Region)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "blsload: "+format+"\n", args...)
	os.Exit(1)
}
