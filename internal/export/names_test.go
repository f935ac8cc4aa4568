package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadNames_Text(t *testing.T) {
	path := writeTemp(t, "names.txt", "Riad Fes\n\n  Cabinet   Atlas \nRiad Fes\r\n")
	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Riad Fes", "Cabinet Atlas"}, names)
}

func TestReadNames_CSV(t *testing.T) {
	path := writeTemp(t, "names.csv", "name,city\nRiad Fes,fes\n\"Atlas, Dr X\",fes\n")
	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Riad Fes", "Atlas, Dr X"}, names)
}

func TestReadNames_JSON(t *testing.T) {
	path := writeTemp(t, "names.json", `["Riad Fes", "", "Hotel Sahrai"]`)
	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Riad Fes", "Hotel Sahrai"}, names)

	bad := writeTemp(t, "bad.json", `{"name":"x"}`)
	_, err = ReadNames(bad)
	assert.Error(t, err)
}

func TestReadNames_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, n := range []string{"Name", "Riad Fes", "Pharmacie Nour"} {
		sheet.AddRow().AddCell().SetString(n)
	}
	path := filepath.Join(t.TempDir(), "names.xlsx")
	require.NoError(t, f.Save(path))

	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Riad Fes", "Pharmacie Nour"}, names)
}

func TestReadNames_Missing(t *testing.T) {
	_, err := ReadNames(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
