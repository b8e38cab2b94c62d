package fetcher

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadXLSX_Basic(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"year", "make", "price"},
			{"2021", "Honda", "24500"},
			{"2020", "Toyota", "22000"},
		},
	})

	rows, err := ReadXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"year", "make", "price"}, rows[0])
	assert.Equal(t, []string{"2020", "Toyota", "22000"}, rows[2])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Comps": {{"price"}, {"19000"}},
	})

	rows, err := ReadXLSX(data, XLSXOptions{SheetName: "Comps"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"price"}, {"19000"}}, rows)

	_, err = ReadXLSX(data, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(data, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_InvalidData(t *testing.T) {
	_, err := ReadXLSX([]byte("not a workbook"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open workbook")
}

func TestReadTable_XLSX(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Year", "Make", "Model", "Price"},
			{"2022", "Ford", "F-150", "41000"},
		},
	})

	records, err := ReadTable(context.Background(), bytes.NewReader(data), FormatXLSX)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "F-150", records[0].Get("model"))
	assert.Equal(t, "41000", records[0].Get("price"))
}
