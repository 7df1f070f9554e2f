package parser_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dashgen-backend/internal/model"
	"dashgen-backend/internal/parser"
)

const salesCSV = "\ufeff Region ,Units,Price,Active,Note\n" +
	"EU,10,1.5,true,first\n" +
	"US,,2,false,\n" +
	"EU,7,NaN,TRUE,\"quoted, note\"\n" +
	",,,,\n" +
	"APAC,3\n"

func TestParseCSV(t *testing.T) {
	table, err := parser.ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Units", "Price", "Active", "Note"}, table.Columns)
	assert.Equal(t, map[string]string{
		"Region": parser.TypeObject,
		"Units":  parser.TypeInt,
		"Price":  parser.TypeFloat,
		"Active": parser.TypeBool,
		"Note":   parser.TypeObject,
	}, table.Types)

	require.Len(t, table.Rows, 4)
	assert.Equal(t, model.Row{"Region": "EU", "Units": int64(10), "Price": 1.5, "Active": true, "Note": "first"}, table.Rows[0])
	assert.Nil(t, table.Rows[1]["Units"])
	assert.Nil(t, table.Rows[1]["Note"])
	assert.Nil(t, table.Rows[2]["Price"])
	assert.Equal(t, "quoted, note", table.Rows[2]["Note"])
	assert.Equal(t, model.Row{"Region": "APAC", "Units": int64(3), "Price": nil, "Active": nil, "Note": nil}, table.Rows[3])
}

func TestParseCSV_DuplicateAndBlankHeaders(t *testing.T) {
	table, err := parser.ParseCSV(strings.NewReader("a,a,,b\n1,2,3,4\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "b"}, table.Columns)
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := parser.ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestTableParser_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	p := parser.NewTableParser()

	csvPath := filepath.Join(dir, "data.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("x,y\na,1\n"), 0644))
	table, err := p.Parse(csvPath)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, err = p.Parse(filepath.Join(dir, "data.json"))
	assert.Error(t, err)

	assert.True(t, parser.Supported("report.xlsx"))
	assert.False(t, parser.Supported("report.txt"))
}

func TestTableParser_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"city", "visits"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Lima", 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Quito", 30}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := parser.NewTableParser().Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "visits"}, table.Columns)
	assert.Equal(t, parser.TypeInt, table.Types["visits"])
	assert.Equal(t, model.Row{"city": "Quito", "visits": int64(30)}, table.Rows[1])
}

func TestSummarize(t *testing.T) {
	table, err := parser.ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	s := parser.Summarize(table)

	lines := strings.Split(s.Text, "\n")
	assert.Equal(t, "Rows: 4", lines[0])
	assert.Equal(t, `- Region (object): ["EU", "US", "EU"]`, lines[1])
	assert.Equal(t, "- Units (int64): [10, 7, 3]", lines[2])
	assert.Equal(t, "- Active (bool): [True, False, True]", lines[4])
	assert.Equal(t, parser.TypeFloat, s.ColTypes["Price"])
}
