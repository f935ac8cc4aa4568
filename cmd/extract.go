package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contact-scraper/internal/disambiguate"
	"github.com/sells-group/contact-scraper/internal/extract"
	"github.com/sells-group/contact-scraper/internal/fetch"
	"github.com/sells-group/contact-scraper/internal/maps"
	"github.com/sells-group/contact-scraper/internal/query"
)

var (
	extractFile     string
	extractSave     string
	extractContext  int
	extractLocation string
)

var extractCmd = &cobra.Command{
	Use:   "extract [query]",
	Short: "Run the extractors over a saved page or a live search and print the candidates",
	Long: `Debugging aid. Reads a payload from --file or fetches the search page for
the query, then prints every extractor's candidates. Address candidates are
listed longest first with the surrounding page text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw, location string
		switch {
		case extractFile != "":
			data, err := os.ReadFile(extractFile)
			if err != nil {
				return eris.Wrapf(err, "extract: read %s", extractFile)
			}
			raw, location = string(data), extractLocation
		case len(args) == 1:
			q, err := query.Parse(args[0])
			if err != nil {
				return err
			}
			location = q.Location
			search := maps.NewClient(fetch.New(fetchConfig(cfg.Fetch)), maps.Options{
				BaseURL:  cfg.Maps.BaseURL,
				Language: cfg.Maps.Language,
				Region:   cfg.Maps.Region,
			})
			if raw, err = search.Search(cmd.Context(), maps.BuildQuery(q.BusinessType, q.Location)); err != nil {
				return err
			}
		default:
			return eris.New("extract: give a query or --file")
		}

		if extractSave != "" {
			if err := os.WriteFile(extractSave, []byte(raw), 0o644); err != nil {
				return eris.Wrapf(err, "extract: save %s", extractSave)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved payload to %s\n", extractSave)
		}

		printExtraction(cmd.OutOrStdout(), extract.New(), raw, location, extractContext)
		return nil
	},
}

// printExtraction writes every extractor's output for raw.
func printExtraction(out io.Writer, ex extract.Extractor, raw, location string, around int) {
	fmt.Fprintf(out, "Payload: %d bytes\n", len(raw))

	links := ex.Links(raw)
	section(out, "Names", ex.Names(raw))
	section(out, "Phones", ex.Phones(raw))
	section(out, "Emails", ex.Emails(raw))
	section(out, "Links", links)
	section(out, "Websites", ex.Websites(ex.FilterSocial(links)))

	addrs := ex.Addresses(raw)
	sorted := append([]string(nil), addrs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	fmt.Fprintf(out, "\nAddresses (%d, longest first):\n", len(sorted))
	for i, a := range sorted {
		fmt.Fprintf(out, "%3d. [%d] %s\n", i+1, utf8.RuneCountInString(a), a)
	}
	if len(addrs) == 0 {
		return
	}

	pick := disambiguate.Pick(disambiguate.Request{Location: location, Candidates: addrs})
	fmt.Fprintf(out, "\nLocal pick: %s\n", orNone(pick))

	if around <= 0 {
		return
	}
	fmt.Fprintln(out, "\nContext (first 10):")
	for i, a := range sorted[:min(10, len(sorted))] {
		fmt.Fprintf(out, "\n#%d [len=%d]\n%s\n", i+1, utf8.RuneCountInString(a), snippet(raw, a, around))
	}
}

func section(out io.Writer, title string, items []string) {
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(items))
	for i, it := range items {
		fmt.Fprintf(out, "%3d. %s\n", i+1, it)
	}
}

// snippet returns raw around needle, or around its first comma-separated
// segment when the whole candidate was rebuilt from collapsed whitespace.
func snippet(raw, needle string, n int) string {
	at := strings.Index(raw, needle)
	if at < 0 {
		first, _, _ := strings.Cut(needle, ",")
		if at = strings.Index(raw, strings.TrimSpace(first)); at < 0 {
			return "(not found verbatim)"
		}
	}
	start := max(0, at-n)
	end := min(len(raw), at+len(needle)+n)
	for start > 0 && !utf8.RuneStart(raw[start]) {
		start--
	}
	for end < len(raw) && !utf8.RuneStart(raw[end]) {
		end++
	}
	return raw[start:end]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "read the payload from a file instead of searching")
	extractCmd.Flags().StringVar(&extractSave, "save", "", "write the payload to this path")
	extractCmd.Flags().IntVar(&extractContext, "context", 0, "bytes of page text to show around each address")
	extractCmd.Flags().StringVarP(&extractLocation, "location", "l", query.DefaultLocation, "location used for the local pick with --file")
	rootCmd.AddCommand(extractCmd)
}
