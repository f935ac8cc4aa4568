package export

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contact-scraper/internal/model"
)

const (
	resultsSheet  = "Results"
	metadataSheet = "Metadata"
)

// WriteXLSX saves rf as a workbook with a results sheet and a metadata sheet.
func WriteXLSX(path string, rf model.ResultFile) error {
	f := xlsx.NewFile()

	results, err := f.AddSheet(resultsSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add results sheet")
	}
	addRow(results, recordHeader)
	for _, r := range rf.Results {
		addRow(results, recordRow(r))
	}

	meta, err := f.AddSheet(metadataSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add metadata sheet")
	}
	m := rf.Metadata
	addRow(meta, []string{"businessType", m.BusinessType})
	addRow(meta, []string{"location", m.Location})
	row := meta.AddRow()
	row.AddCell().SetString("totalResults")
	row.AddCell().SetInt(m.TotalResults)
	addRow(meta, []string{"scrapedAt", m.ScrapedAt.Format(time.RFC3339)})
	addRow(meta, []string{"scrapedAtLocal", m.ScrapedAtLocal})

	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
