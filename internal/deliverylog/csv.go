package deliverylog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blockedby/autorecruit/internal/models"
)

// Header is the exported column order. The first five columns are required
// when reading; the rest are optional so older, shorter logs still load.
var Header = []string{"Timestamp", "AgencyName", "Email", "Status", "Detail", "MessageID", "Subject", "Preview", "Row"}

const requiredColumns = 5

// TimestampLayout keeps sub-second precision so an export reloads exactly.
const TimestampLayout = time.RFC3339Nano

// Export writes the log as CSV with a header row.
func (l *Log) Export(w io.Writer) error {
	return WriteCSV(w, l.Entries())
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []models.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Timestamp.Format(TimestampLayout),
			e.AgencyName,
			e.Email,
			string(e.Status),
			e.Detail,
			e.MessageID,
			e.Subject,
			e.Preview,
			strconv.Itoa(e.Row),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile snapshots the log to path. The file is written next to its
// destination and renamed into place, so readers never see a partial log.
func (l *Log) ExportFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := l.Export(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace log: %w", err)
	}
	return nil
}

// Read parses an exported log for display. It does not restore run state.
func Read(r io.Reader) ([]models.LogEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("log is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < requiredColumns {
		return nil, fmt.Errorf("log header has %d columns, want at least %d", len(header), requiredColumns)
	}
	for i := 0; i < requiredColumns; i++ {
		if header[i] != Header[i] {
			return nil, fmt.Errorf("log column %d is %q, want %q", i+1, header[i], Header[i])
		}
	}

	var entries []models.LogEntry
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		e, err := parseRecord(header, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadFile reads an exported log from path.
func ReadFile(path string) ([]models.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func parseRecord(header, record []string) (models.LogEntry, error) {
	get := func(col string) string {
		for i, h := range header {
			if h == col && i < len(record) {
				return record[i]
			}
		}
		return ""
	}

	ts, err := time.Parse(TimestampLayout, get("Timestamp"))
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("parse timestamp: %w", err)
	}

	status := models.DeliveryStatus(get("Status"))
	if !status.Valid() {
		return models.LogEntry{}, fmt.Errorf("unknown status %q", status)
	}

	var row int
	if v := get("Row"); v != "" {
		row, err = strconv.Atoi(v)
		if err != nil {
			return models.LogEntry{}, fmt.Errorf("parse row: %w", err)
		}
	}

	return models.LogEntry{
		Timestamp:  ts,
		Row:        row,
		AgencyName: get("AgencyName"),
		Email:      get("Email"),
		Status:     status,
		Detail:     get("Detail"),
		MessageID:  get("MessageID"),
		Subject:    get("Subject"),
		Preview:    get("Preview"),
	}, nil
}
