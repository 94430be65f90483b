// Package contacts loads recruiter tables (CSV or XLSX) into contact records.
package contacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blockedby/autorecruit/internal/models"
)

// Format identifies a supported table encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	// FormatXLS is the legacy binary Excel format, recognized only to be
	// rejected with a clear error.
	FormatXLS Format = "xls"
)

// DetectFormat picks the table format from a file name. Unknown extensions
// are treated as CSV.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	default:
		return FormatCSV
	}
}

// LoadFile opens path and loads its contacts.
func LoadFile(path string) ([]models.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contacts file: %w", err)
	}
	defer f.Close()

	return Load(filepath.Base(path), f)
}

// Load parses a table with a header row into contacts, preserving row order.
// name is only used to pick the format and to label errors.
// Email syntax is not checked here; invalid addresses fail at send time.
func Load(name string, r io.Reader) ([]models.Contact, error) {
	var (
		rows [][]string
		err  error
	)

	switch DetectFormat(name) {
	case FormatXLSX:
		rows, err = readXLSX(name, r)
	case FormatXLS:
		return nil, malformed(name, "legacy .xls workbooks are not supported, save the sheet as .xlsx or .csv", nil)
	default:
		rows, err = readCSV(name, r)
	}
	if err != nil {
		return nil, err
	}

	return buildContacts(name, rows)
}

func buildContacts(source string, rows [][]string) ([]models.Contact, error) {
	if len(rows) == 0 {
		return nil, malformed(source, "table is empty", nil)
	}

	header, err := parseHeader(source, rows[0])
	if err != nil {
		return nil, err
	}

	aliases := resolveAliases(header)
	if _, ok := aliases[models.FieldEmail]; !ok && !contains(header, models.FieldEmail) {
		return nil, malformed(source, "no Email column in header", nil)
	}

	columns := append([]string(nil), header...)
	for _, canonical := range canonicalOrder {
		if !contains(columns, canonical) {
			columns = append(columns, canonical)
		}
	}

	contacts := make([]models.Contact, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		if isBlank(raw) {
			continue
		}

		fields := make(map[string]string, len(columns))
		for col, name := range header {
			if name == "" {
				continue
			}
			if col < len(raw) {
				fields[name] = strings.TrimSpace(raw[col])
			} else {
				fields[name] = ""
			}
		}
		applyAliases(fields, aliases)

		contacts = append(contacts, models.Contact{
			Row:     i + 1,
			Columns: columns,
			Fields:  fields,
		})
	}

	return contacts, nil
}

func parseHeader(source string, raw []string) ([]string, error) {
	if isBlank(raw) {
		return nil, malformed(source, "missing header row", nil)
	}

	header := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, cell := range raw {
		name := strings.TrimSpace(cell)
		if i == 0 {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		}
		if strings.Contains(name, "@") {
			// a data row where the header should be
			return nil, malformed(source, "missing header row", fmt.Errorf("cell %q looks like an address", name))
		}
		if strings.ContainsAny(name, "{}") {
			return nil, malformed(source, fmt.Sprintf("header %q contains braces", name), nil)
		}
		if name != "" && seen[name] {
			return nil, malformed(source, fmt.Sprintf("duplicate header %q", name), nil)
		}
		seen[name] = true
		header[i] = name
	}

	return header, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
