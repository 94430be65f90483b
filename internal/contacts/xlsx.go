package contacts

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the rows of the first worksheet.
func readXLSX(source string, r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, malformed(source, "invalid XLSX workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, malformed(source, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, malformed(source, "read sheet "+sheets[0], err)
	}
	return rows, nil
}
