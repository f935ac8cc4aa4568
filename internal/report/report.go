// Package report summarizes a result file for the console.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/contact-scraper/internal/model"
)

// Quality is a coverage band.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityLow       Quality = "low"
)

// Summary holds coverage statistics over a set of records.
type Summary struct {
	Total       int `json:"total"`
	WithPhone   int `json:"with_phone"`
	WithWebsite int `json:"with_website"`
	WithEmails  int `json:"with_emails"`
	TotalEmails int `json:"total_emails"`
}

// Summarize counts field coverage in records.
func Summarize(records []model.BusinessRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.Phone != "" {
			s.WithPhone++
		}
		if r.Website != "" {
			s.WithWebsite++
		}
		if r.HasEmails() {
			s.WithEmails++
		}
		s.TotalEmails += len(r.Emails)
	}
	return s
}

// Percent returns n as a rounded percentage of the total.
func (s Summary) Percent(n int) int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(s.Total)))
}

// PhoneQuality is excellent from 80%, good from 50%.
func (s Summary) PhoneQuality() Quality {
	switch p := s.Percent(s.WithPhone); {
	case p >= 80:
		return QualityExcellent
	case p >= 50:
		return QualityGood
	default:
		return QualityLow
	}
}

// WebsiteQuality is good from 50%, fair from 30%.
func (s Summary) WebsiteQuality() Quality {
	return band(s.Percent(s.WithWebsite), 50, 30)
}

// EmailQuality is good from 30%, fair from 10%.
func (s Summary) EmailQuality() Quality {
	return band(s.Percent(s.WithEmails), 30, 10)
}

func band(p, good, fair int) Quality {
	switch {
	case p >= good:
		return QualityGood
	case p >= fair:
		return QualityFair
	default:
		return QualityLow
	}
}

const rule = 70

// Print writes the per-business listing followed by coverage statistics.
func Print(out io.Writer, rf model.ResultFile) {
	m := rf.Metadata
	fmt.Fprintf(out, "Business type: %s\n", strings.ToUpper(m.BusinessType))
	fmt.Fprintf(out, "Location:      %s\n", strings.ToUpper(m.Location))
	fmt.Fprintf(out, "Businesses:    %d\n\n", len(rf.Results))

	if len(rf.Results) == 0 {
		fmt.Fprintln(out, "No results found. Try different search terms or location.")
		return
	}

	for i, r := range rf.Results {
		fmt.Fprintf(out, "%d. %s\n", i+1, strings.Repeat("-", rule))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "  Business:\t%s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Phone:\t%s\n", orNA(r.Phone))
		_, _ = fmt.Fprintf(w, "  Website:\t%s\n", orNA(r.Website))
		_, _ = fmt.Fprintf(w, "  Emails:\t%s\n", orNA(strings.Join(r.Emails, ", ")))
		_, _ = fmt.Fprintf(w, "  Address:\t%s\n", orNA(r.Address))
		_ = w.Flush()
	}
	fmt.Fprintln(out)
	PrintSummary(out, Summarize(rf.Results))
}

// PrintSummary writes coverage rates and quality bands.
func PrintSummary(out io.Writer, s Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tFOUND\tRATE\tQUALITY")
	_, _ = fmt.Fprintln(w, "-----\t-----\t----\t-------")
	_, _ = fmt.Fprintf(w, "phone\t%d/%d\t%d%%\t%s\n", s.WithPhone, s.Total, s.Percent(s.WithPhone), s.PhoneQuality())
	_, _ = fmt.Fprintf(w, "website\t%d/%d\t%d%%\t%s\n", s.WithWebsite, s.Total, s.Percent(s.WithWebsite), s.WebsiteQuality())
	_, _ = fmt.Fprintf(w, "email\t%d/%d\t%d%%\t%s\n", s.WithEmails, s.Total, s.Percent(s.WithEmails), s.EmailQuality())
	_ = w.Flush()
	fmt.Fprintf(out, "Total emails: %d\n", s.TotalEmails)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
