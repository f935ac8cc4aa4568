// Package export writes result files in JSON, CSV, XLSX and YAML, and reads
// business name lists for batch enrichment.
package export

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/model"
)

// DefaultPath is where results are written when no path is configured.
// The file is overwritten on every run.
const DefaultPath = "scraping_results.json"

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case "yml":
		return FormatYAML, nil
	case FormatJSON, FormatCSV, FormatXLSX, FormatYAML:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// FormatFromPath infers the format from path's extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// WriteFile writes rf to path in the given format, replacing any existing
// file. An empty format is inferred from the extension.
func WriteFile(path string, format Format, rf model.ResultFile) error {
	if path == "" {
		path = DefaultPath
	}
	if format == "" {
		format = FormatFromPath(path)
	}

	if format == FormatXLSX {
		if err := WriteXLSX(path, rf); err != nil {
			return err
		}
	} else {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", path)
		}
		w := bufio.NewWriter(f)
		if err := Write(w, format, rf); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := w.Flush(); err != nil {
			f.Close() //nolint:errcheck
			return eris.Wrapf(err, "export: flush %s", path)
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "export: close %s", path)
		}
	}

	zap.L().Info("export: results written",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("records", len(rf.Results)),
	)
	return nil
}

// Write encodes rf to w. XLSX is not a stream format; use WriteXLSX.
func Write(w io.Writer, format Format, rf model.ResultFile) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, rf)
	case FormatCSV:
		return WriteCSV(w, rf.Results)
	case FormatYAML:
		return WriteYAML(w, rf)
	default:
		return eris.Errorf("export: format %q cannot be streamed", format)
	}
}

// WriteJSON writes rf as two-space indented JSON.
func WriteJSON(w io.Writer, rf model.ResultFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return eris.Wrap(enc.Encode(rf), "export: encode json")
}

// ReadResultFile loads a JSON result file.
func ReadResultFile(path string) (model.ResultFile, error) {
	var rf model.ResultFile
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, eris.Wrapf(err, "export: read %s", path)
	}
	if err := json.Unmarshal(data, &rf); err != nil {
		return rf, eris.Wrapf(err, "export: decode %s", path)
	}
	return rf, nil
}
