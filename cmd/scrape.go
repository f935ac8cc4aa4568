package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/export"
	"github.com/sells-group/contact-scraper/internal/model"
	"github.com/sells-group/contact-scraper/internal/query"
	"github.com/sells-group/contact-scraper/internal/report"
	"github.com/sells-group/contact-scraper/internal/resilience"
	"github.com/sells-group/contact-scraper/internal/store"
)

var (
	outputPath   string
	outputFormat string
	noStore      bool
	quiet        bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <query> [max_results]",
	Short: "Discover and enrich businesses for a query such as \"dentiste fes\"",
	Long: `Splits the query into a business type and a Moroccan city (default fes),
discovers up to max_results businesses on the map search, researches each one
and writes the results.

Examples:
  contact-scraper scrape "dentiste fes"
  contact-scraper scrape "avocat rabat" 15
  contact-scraper scrape "Concepteur de sites web fes" -o sites.xlsx`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		q, err := query.Parse(args[0])
		if err != nil {
			return err
		}
		maxResults, err := parseMaxResults(args, cfg.Pipeline.MaxResults)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Query:         %q\n", args[0])
		fmt.Fprintf(out, "Business type: %q\n", q.BusinessType)
		fmt.Fprintf(out, "Location:      %q\n", q.Location)
		fmt.Fprintf(out, "Max results:   %d\n\n", maxResults)

		env, err := initScraper(ctx, cfg, progressPrinter(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		var st store.Store
		if !noStore {
			if st, err = initStore(ctx); err != nil {
				return err
			}
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		var run *model.Run
		if st != nil {
			run, err = st.CreateRun(ctx, store.NewRun{
				Query:        args[0],
				BusinessType: q.BusinessType,
				Location:     q.Location,
				MaxResults:   maxResults,
			})
			if err != nil {
				return eris.Wrap(err, "scrape: create run")
			}
		}

		rf, err := env.Scraper.Scrape(ctx, q.BusinessType, q.Location, maxResults)
		logOpenBreakers(env)
		if run != nil {
			if rerr := store.RecordOutcome(ctx, st, run.ID, rf.Results, err); rerr != nil {
				zap.L().Error("scrape: record run", zap.Error(rerr))
			}
		}
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		if err := finish(out, rf); err != nil {
			return err
		}
		return interrupted(ctx)
	},
}

// finish prints the report and writes the result file.
func finish(out io.Writer, rf model.ResultFile) error {
	if !quiet {
		report.Print(out, rf)
	}

	path := outputPath
	if path == "" {
		path = cfg.Output.Path
	}
	format := outputFormat
	if format == "" {
		format = cfg.Output.Format
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if format == "" {
		f = export.FormatFromPath(path)
	}
	if err := export.WriteFile(path, f, rf); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	return nil
}

// logOpenBreakers reports hosts whose circuit was still open after the run.
func logOpenBreakers(env *scraperEnv) {
	for host, state := range env.Fetcher.Breakers() {
		if state != resilience.Closed {
			zap.L().Warn("scrape: host circuit not closed", zap.String("host", host), zap.Stringer("state", state))
		}
	}
}

// interrupted reports a cancelled run after its partial results were
// written.
func interrupted(ctx context.Context) error {
	if ctx.Err() != nil {
		return eris.Wrap(store.ErrInterrupted, "partial results saved")
	}
	return nil
}

func parseMaxResults(args []string, def int) (int, error) {
	if len(args) < 2 {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || n <= 0 {
		return 0, eris.Errorf("max_results must be a positive integer, got %q", args[1])
	}
	return n, nil
}

// progressPrinter reports each finished business on w.
func progressPrinter(w io.Writer) func(done, total int, name string, err error) {
	if quiet {
		return nil
	}
	return func(done, total int, name string, err error) {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		fmt.Fprintf(w, "[%d/%d] %3d%% %-6s %s\n", done, total, done*100/total, status, truncate(name, 60))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	for _, c := range []*cobra.Command{scrapeCmd, enrichCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "result file path (default from config)")
		c.Flags().StringVar(&outputFormat, "format", "", "result format: json, csv, xlsx, yaml (default from extension)")
		c.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the store")
		c.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress and the report")
	}
	rootCmd.AddCommand(scrapeCmd)
}
