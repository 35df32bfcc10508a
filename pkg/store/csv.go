package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fundscope/fundscope/pkg/domain"
)

// Columns is the fixed scraper output schema, in column order. The reader side
// tolerates supersets and missing columns, the file format evolves by adding
// columns over time.
var Columns = []string{
	"found_at", "query", "source_url", "source_domain", "title",
	"amount_usd", "round", "investors", "pub_date", "snippet",
}

// Writer appends funding records to a daily CSV file. Single writer per file,
// concurrent scraper invocations against the same path are not supported.
type Writer struct {
	file *os.File
	csv  *csv.Writer
	path string
}

// NewWriter opens the file for appending, creating directories as needed and
// writing the header when the file is empty.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // output path comes from config
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	w := &Writer{file: f, csv: csv.NewWriter(f), path: path}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if err := w.csv.Write(Columns); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	return w, nil
}

// Append writes one record and flushes it, rows must survive a crashed run.
func (w *Writer) Append(rec *domain.FundingRecord) error {
	row := []string{
		rec.FoundAt.UTC().Format(time.RFC3339),
		rec.Query,
		rec.SourceURL,
		rec.SourceDomain,
		rec.Title,
		strconv.FormatInt(rec.AmountUSD, 10),
		rec.Round,
		rec.Investors,
		rec.PubDate,
		rec.Snippet,
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string { return w.path }

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// CopyLatest overwrites dst with the contents of src, keeping the well-known
// latest snapshot in sync with the most recent daily file.
func CopyLatest(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from config
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // paths come from config
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy snapshot: %w", err)
	}
	return out.Close()
}

// Read loads all records from a CSV file, by header name. Expected columns
// missing from the file are synthesized as empty, unknown columns are ignored
// and a malformed amount coerces to zero, a schema change never breaks older
// or newer readers.
func Read(path string) ([]domain.FundingRecord, error) {
	f, err := os.Open(path) //nolint:gosec // input path comes from config
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []domain.FundingRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := domain.FundingRecord{
			Query:        field(row, "query"),
			SourceURL:    field(row, "source_url"),
			SourceDomain: field(row, "source_domain"),
			Title:        field(row, "title"),
			Round:        field(row, "round"),
			Investors:    field(row, "investors"),
			PubDate:      field(row, "pub_date"),
			Snippet:      field(row, "snippet"),
		}
		if ts, err := time.Parse(time.RFC3339, field(row, "found_at")); err == nil {
			rec.FoundAt = ts
		}
		if amt, err := strconv.ParseInt(strings.TrimSpace(field(row, "amount_usd")), 10, 64); err == nil && amt > 0 {
			rec.AmountUSD = amt
		}
		records = append(records, rec)
	}
	return records, nil
}
