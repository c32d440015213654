package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"revscore/internal/adapters/observability"
	"revscore/internal/bootstrap"
	"revscore/internal/scraper"
	"revscore/internal/shared"
)

type flags struct {
	file        string
	concurrency int
	refresh     bool
	workers     int
	pageCap     int
	trace       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "analyse [product-url]",
		Short: "Scrape, score and summarise product reviews",
		Long: `Analyses one product URL and prints the report as JSON, or with --file
analyses every URL in the file (one per line) with bounded concurrency to warm the cache.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (f.file != "") {
				return errors.New("pass exactly one of a product URL or --file")
			}
			return run(cmd.Context(), f, args)
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "file with one product URL per line")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 2, "products analysed at once in --file mode")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "drop cached reports before analysing")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "scrape workers per product (overrides SCRAPE_WORKERS)")
	cmd.Flags().IntVar(&f.pageCap, "pages", 0, "page cap per product (overrides PAGE_CAP)")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "log every scraped page")
	return cmd
}

func run(parent context.Context, f flags, args []string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.pageCap > 0 {
		cfg.PageCap = f.pageCap
	}

	var opts []scraper.Option
	if f.trace {
		opts = append(opts, scraper.WithObserver(func(e scraper.PageEvent) {
			log.Debug().
				Int("worker", e.Worker).
				Int("page", e.Page).
				Int("reviews", e.Reviews).
				Int("attempts", e.Attempts).
				AnErr("last_err", e.Err).
				Msg("page")
		}))
	}
	deps, err := bootstrap.Build(cfg, opts...)
	if err != nil {
		return err
	}
	defer deps.Close()
	svc := deps.Service

	if len(args) == 1 {
		if f.refresh {
			if err := svc.Invalidate(ctx, args[0]); err != nil {
				return err
			}
		}
		rep, err := svc.Analyse(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	urls, err := readURLs(f.file)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	l := log.With().Str("run", runID).Logger()
	l.Info().Int("urls", len(urls)).Int("concurrency", f.concurrency).Msg("batch starting")

	sem := semaphore.NewWeighted(int64(max(f.concurrency, 1)))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, u := range urls {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			l.Warn().Err(err).Msg("batch interrupted")
			break
		}
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer sem.Release(1)

			if f.refresh {
				_ = svc.Invalidate(ctx, u)
			}
			rep, err := svc.Analyse(ctx, u)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				l.Warn().Str("url", u).Err(err).Msg("analyse failed")
				return
			}
			l.Info().
				Str("item", rep.ProductID).
				Int("reviews", rep.ReviewsScraped).
				Str("sentiment", rep.UserSentiment).
				Msg("analyse ok")
		}(u)
	}
	wg.Wait()

	l.Info().Int("failed", failed).Msg("batch completed")
	if failed > 0 {
		return fmt.Errorf("%d of %d products failed", failed, len(urls))
	}
	return nil
}

// readURLs returns the non-blank, non-comment lines of path.
func readURLs(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var out []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
