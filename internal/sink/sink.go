package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperifyio/pdpextract/internal/record"
)

// Sink persists assembled records.
type Sink interface {
	Write(recs []record.Record) error
}

// FileSink writes each record as pretty-printed JSON to Dir/<id suffix>.json,
// replacing any existing file of that name. Write errors are returned as-is
// and are not retried.
type FileSink struct {
	Dir string
}

// Path returns the file a record is written to.
func (s FileSink) Path(r record.Record) string {
	return filepath.Join(s.Dir, r.FileKey()+".json")
}

func (s FileSink) Write(recs []record.Record) error {
	for _, r := range recs {
		if r.Text == "" {
			continue
		}
		data, err := Marshal(r)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.ID, err)
		}
		if err := os.WriteFile(s.Path(r), data, 0o644); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return nil
}

// Marshal encodes v with 4-space indentation and without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
