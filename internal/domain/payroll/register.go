package payroll

import (
	"bytes"
	"encoding/csv"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)


var registerHeader = []string{"employee_id", "employee_name", "period", "currency", "base_salary", "allowances", "deductions", "loan_deduction", "gross", "net", "status"}

func registerRow(r Record) []string {
	return []string{
		r.EmployeeID,
		r.EmployeeName,
		r.Period,
		r.Currency,
		r.BaseSalary.StringFixed(2),
		r.Allowances.StringFixed(2),
		r.Deductions.StringFixed(2),
		r.LoanDeduction.StringFixed(2),
		r.Gross.StringFixed(2),
		r.Net.StringFixed(2),
		r.Status,
	}
}

// Register renders the payroll register for records as CSV or XLSX and
// returns the body with its content type.
func Register(records []Record, format string) ([]byte, string, error) {
	switch format {
	case "", FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(registerHeader); err != nil {
			return nil, "", errors.Wrap(err, "write header")
		}
		for _, r := range records {
			if err := w.Write(registerRow(r)); err != nil {
				return nil, "", errors.Wrap(err, "write row")
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", errors.Wrap(err, "flush register")
		}
		return buf.Bytes(), ContentTypeCSV, nil
	case FormatXLSX:
		body, err := registerXLSX(records)
		if err != nil {
			return nil, "", err
		}
		return body, ContentTypeXLSX, nil
	default:
		return nil, "", ErrUnknownFormat
	}
}

func registerXLSX(records []Record) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	const sheet = "Register"
	if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
		return nil, errors.Wrap(err, "name sheet")
	}
	sw, err := book.NewStreamWriter(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "stream writer")
	}
	header := make([]any, len(registerHeader))
	for i, h := range registerHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "cell name")
		}
		gross, _ := r.Gross.Float64()
		net, _ := r.Net.Float64()
		row := []any{r.EmployeeID, r.EmployeeName, r.Period, r.Currency,
			r.BaseSalary.StringFixed(2), r.Allowances.StringFixed(2), r.Deductions.StringFixed(2), r.LoanDeduction.StringFixed(2),
			gross, net, r.Status}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, errors.Wrap(err, "write row")
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, errors.Wrap(err, "flush register")
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encode workbook")
	}
	return buf.Bytes(), nil
}
