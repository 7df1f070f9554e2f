// Package parser reads uploaded spreadsheets into typed tables.
package parser

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/model"
)

const (
	TypeInt    = "int64"
	TypeFloat  = "float64"
	TypeBool   = "bool"
	TypeObject = "object"
)

type TableParser interface {
	Parse(path string) (*model.Table, error)
}

type extensionParser struct {
	parsers map[string]TableParser
}

// NewTableParser dispatches on the file extension: .csv, .xlsx and .xlsm.
func NewTableParser() TableParser {
	xlsx := &xlsxTableParser{}
	return &extensionParser{
		parsers: map[string]TableParser{
			".csv":  &csvTableParser{},
			".xlsx": xlsx,
			".xlsm": xlsx,
		},
	}
}

func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

func (p *extensionParser) Parse(path string) (*model.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parser, ok := p.parsers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	table, err := parser.Parse(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Int("rows", len(table.Rows)).Int("columns", len(table.Columns)).Msg("Parsed table")
	return table, nil
}

// buildTable trims and de-duplicates the header, infers a type per column and
// converts every cell to it. Empty cells become nil.
func buildTable(header []string, records [][]string) (*model.Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	columns := normalizeHeader(header)

	types := make(map[string]string, len(columns))
	for i, col := range columns {
		types[col] = inferType(records, i)
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		row := make(model.Row, len(columns))
		for i, col := range columns {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			row[col] = convert(cell, types[col])
		}
		rows = append(rows, row)
	}
	return &model.Table{Columns: columns, Types: types, Rows: rows}, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		columns[i] = name
	}
	return columns
}

func inferType(records [][]string, col int) string {
	isInt, isFloat, isBool := true, true, true
	nonEmpty := 0
	for _, rec := range records {
		if col >= len(rec) || isMissing(rec[col]) {
			continue
		}
		cell := strings.TrimSpace(rec[col])
		nonEmpty++
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			lower := strings.ToLower(cell)
			if lower != "true" && lower != "false" {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return TypeObject
		}
	}
	switch {
	case nonEmpty == 0:
		return TypeFloat
	case isInt:
		return TypeInt
	case isFloat:
		return TypeFloat
	case isBool:
		return TypeBool
	}
	return TypeObject
}

func convert(cell, typ string) any {
	if isMissing(cell) {
		return nil
	}
	trimmed := strings.TrimSpace(cell)
	switch typ {
	case TypeInt:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return v
		}
	case TypeFloat:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err == nil {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil
			}
			return v
		}
	case TypeBool:
		return strings.EqualFold(trimmed, "true")
	}
	return cell
}

var missingMarkers = map[string]bool{
	"": true, "nan": true, "na": true, "n/a": true, "null": true, "none": true, "#n/a": true,
}

func isMissing(cell string) bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(cell))]
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
