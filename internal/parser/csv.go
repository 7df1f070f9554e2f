package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"dashgen-backend/internal/model"
)

type csvTableParser struct{}

func (p *csvTableParser) Parse(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads a header row followed by records. Ragged rows are
// tolerated: missing cells are nil and extra cells are dropped.
func ParseCSV(r io.Reader) (*model.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv records: %w", err)
	}
	return buildTable(header, records)
}
