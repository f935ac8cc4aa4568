// Package model defines the records produced and persisted by the scraper.
package model

import "time"

// BusinessRecord is the enriched contact record for one queried business.
// The address is persisted under the "location" key.
type BusinessRecord struct {
	Name    string   `json:"name" yaml:"name"`
	Phone   string   `json:"phone" yaml:"phone"`
	Website string   `json:"website" yaml:"website"`
	Emails  []string `json:"emails" yaml:"emails"`
	Address string   `json:"location" yaml:"location"`
}

// HasEmails reports whether at least one email was found.
func (r BusinessRecord) HasEmails() bool { return len(r.Emails) > 0 }

// ResultMetadata describes the batch a ResultFile was produced from.
type ResultMetadata struct {
	BusinessType   string    `json:"businessType" yaml:"businessType"`
	Location       string    `json:"location" yaml:"location"`
	TotalResults   int       `json:"totalResults" yaml:"totalResults"`
	ScrapedAt      time.Time `json:"scrapedAt" yaml:"scrapedAt"`
	ScrapedAtLocal string    `json:"scrapedAtLocal" yaml:"scrapedAtLocal"`
}

// ResultFile is the document written to disk after a batch run.
type ResultFile struct {
	Metadata ResultMetadata   `json:"metadata" yaml:"metadata"`
	Results  []BusinessRecord `json:"results" yaml:"results"`
}

// NewResultFile builds a ResultFile stamped with the given time. Nil email
// slices are normalized so they serialize as [] rather than null.
func NewResultFile(businessType, location string, records []BusinessRecord, at time.Time) ResultFile {
	out := make([]BusinessRecord, len(records))
	for i, r := range records {
		if r.Emails == nil {
			r.Emails = []string{}
		}
		out[i] = r
	}
	return ResultFile{
		Metadata: ResultMetadata{
			BusinessType:   businessType,
			Location:       location,
			TotalResults:   len(out),
			ScrapedAt:      at.UTC(),
			ScrapedAtLocal: at.Local().Format("02/01/2006 15:04:05"),
		},
		Results: out,
	}
}
