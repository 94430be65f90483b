package contacts

import (
	"encoding/csv"
	"errors"
	"io"
)

func readCSV(source string, r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, malformed(source, "invalid CSV", err)
		}
		return nil, malformed(source, "read CSV", err)
	}
	return rows, nil
}
