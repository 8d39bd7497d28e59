package excel

// Sheet is one worksheet of an exported workbook
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}
