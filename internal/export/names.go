package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadNames loads business names from path. The format follows the
// extension: .csv and .xlsx use the first column (a "name" header row is
// skipped), .json expects an array of strings, anything else is read one
// name per line. Blank entries and duplicates are dropped.
func ReadNames(path string) ([]string, error) {
	var (
		names []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		names, err = readXLSXNames(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "names: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		names, err = decodeNames(f, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return cleanNames(names), nil
}

func decodeNames(r io.Reader, ext string) ([]string, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, eris.Wrap(err, "names: read csv")
		}
		return firstColumn(rows), nil
	case ".json":
		var names []string
		if err := json.NewDecoder(r).Decode(&names); err != nil {
			return nil, eris.Wrap(err, "names: decode json")
		}
		return names, nil
	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "names: read")
		}
		return strings.Split(string(data), "\n"), nil
	}
}

func readXLSXNames(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}
	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return firstColumn(rows), nil
}

func firstColumn(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue
		}
		out = append(out, row[0])
	}
	return out
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
