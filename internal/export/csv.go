package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-scraper/internal/model"
)

// EmailSeparator joins a record's emails into one cell.
const EmailSeparator = "; "

var recordHeader = []string{"name", "phone", "website", "emails", "location"}

// WriteCSV writes one row per record under a header row.
func WriteCSV(w io.Writer, records []model.BusinessRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return eris.Wrapf(err, "csv: write row %q", r.Name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}

func recordRow(r model.BusinessRecord) []string {
	return []string{r.Name, r.Phone, r.Website, strings.Join(r.Emails, EmailSeparator), r.Address}
}
