package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/export"
	"github.com/sells-group/contact-scraper/internal/model"
	"github.com/sells-group/contact-scraper/internal/query"
	"github.com/sells-group/contact-scraper/internal/store"
)

var (
	enrichNamesFile string
	enrichLocation  string
	enrichType      string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [name...]",
	Short: "Enrich a known list of business names without discovery",
	Long: `Researches each given business in one location. Names come from the
arguments and/or --names (txt, csv, xlsx or json).

Example:
  contact-scraper enrich --location fes "Cabinet Dentaire Atlas" "Riad Fes"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		names := append([]string(nil), args...)
		if enrichNamesFile != "" {
			fromFile, err := export.ReadNames(enrichNamesFile)
			if err != nil {
				return err
			}
			names = append(names, fromFile...)
		}
		if len(names) == 0 {
			return eris.New("enrich: no business names given")
		}

		location := strings.ToLower(strings.TrimSpace(enrichLocation))
		if location == "" {
			location = query.DefaultLocation
		}

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
		var run *model.Run
		if st != nil {
			defer st.Close() //nolint:errcheck
			run, err = st.CreateRun(ctx, store.NewRun{
				Query:        fmt.Sprintf("enrich %d names %s", len(names), location),
				BusinessType: enrichType,
				Location:     location,
				MaxResults:   len(names),
			})
			if err != nil {
				return eris.Wrap(err, "enrich: create run")
			}
		}

		records := env.Batch.Run(ctx, names, location)
		logOpenBreakers(env)
		if run != nil {
			if err := store.RecordOutcome(ctx, st, run.ID, records, nil); err != nil {
				zap.L().Error("enrich: record run", zap.Error(err))
			}
		}
		if err := finish(cmd.OutOrStdout(), model.NewResultFile(enrichType, location, records, time.Now())); err != nil {
			return err
		}
		return interrupted(ctx)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichNamesFile, "names", "", "file of business names (txt, csv, xlsx, json)")
	enrichCmd.Flags().StringVarP(&enrichLocation, "location", "l", query.DefaultLocation, "city searched with every name")
	enrichCmd.Flags().StringVar(&enrichType, "type", "custom", "business type recorded in the result metadata")
	rootCmd.AddCommand(enrichCmd)
}
