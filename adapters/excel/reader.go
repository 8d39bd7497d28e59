package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadSheet reads all rows of one worksheet from an xlsx stream. Tests use it to check
// exported workbooks.
func ReadSheet(r io.Reader, name string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return rows, nil
}
