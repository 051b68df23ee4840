// Package dataset splits labeled search-term CSV files into training,
// validation and test sets and audits the result for duplicates.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Row is one (label, term) pair.
type Row struct {
	Label string
	Term  string
}

// Output file names, in audit order.
const (
	TrainingFile   = "training.csv"
	ValidationFile = "validation.csv"
	TestFile       = "test.csv"
)

// SplitFiles lists the split outputs in the order they are audited.
var SplitFiles = []string{TrainingFile, ValidationFile, TestFile}

// ReadRows reads a headerless two-column CSV. A leading UTF-8 or UTF-16 BOM
// is honoured.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeRows(f)
}

func decodeRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: want 2 columns, got %d", line, len(rec))
		}
		rows = append(rows, Row{Label: rec[0], Term: rec[1]})
	}
}

// WriteRows writes rows as a headerless two-column CSV.
func WriteRows(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write([]string{r.Label, r.Term}); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
