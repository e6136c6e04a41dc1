package invitations

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

var headerAliases = map[string]string{
	"email":        "email",
	"emailaddress": "email",
	"firstname":    "firstName",
	"givenname":    "firstName",
	"lastname":     "lastName",
	"surname":      "lastName",
	"familyname":   "lastName",
	"role":         "role",
	"department":   "department",
	"dept":         "department",
	"departmentid": "department",
	"manager":      "managerId",
	"managerid":    "managerId",
	"teamlead":     "managerId",
	"teamleadid":   "managerId",
}

var requiredColumns = []string{"email", "firstName", "lastName", "role"}

// ParseFile reads invite rows from an uploaded CSV or XLSX file. The format
// is taken from the extension and falls back to sniffing the content.
func ParseFile(name string, data []byte) ([]Row, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	var (
		records [][]string
		err     error
	)
	switch detectFormat(name, data) {
	case "xlsx":
		records, err = readSpreadsheet(data)
	case "csv":
		records, err = readCSV(data)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records)
}

func detectFormat(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return "xlsx"
	case ".csv":
		return "csv"
	}
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return "xlsx"
	case mtype.Is("text/csv"), mtype.Is("text/plain"):
		return "csv"
	}
	return ""
}

func readSpreadsheet(data []byte) ([][]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open spreadsheet")
	}
	defer book.Close()
	sheet := book.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "read spreadsheet rows")
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var out [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		out = append(out, record)
	}
	return out, nil
}

// rowsFromRecords maps the header row onto Row fields. Line numbers are
// 1-based and count the header, so they match what a spreadsheet shows.
func rowsFromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	columns := map[string]int{}
	for i, h := range records[0] {
		if field, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	var missing []string
	for _, field := range requiredColumns {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrap(ErrMissingColumns, strings.Join(missing, ", "))
	}

	var rows []Row
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows = append(rows, Row{
			Line:       i + 2,
			Email:      cellValue(record, columns, "email"),
			FirstName:  cellValue(record, columns, "firstName"),
			LastName:   cellValue(record, columns, "lastName"),
			Role:       cellValue(record, columns, "role"),
			Department: cellValue(record, columns, "department"),
			ManagerID:  cellValue(record, columns, "managerId"),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	if len(rows) > MaxBulkRows {
		return nil, ErrTooManyRows
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(h)
}

func cellValue(record []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
