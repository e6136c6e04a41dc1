package payroll

import (
	"bytes"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// RenderPayslip draws a one page A4 payslip for a finalized record.
func RenderPayslip(company string, r Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+r.Period, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, company)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Payslip "+r.Period)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Employee: "+r.EmployeeName)
	pdf.Ln(6)
	if r.EmployeeEmail != "" {
		pdf.Cell(0, 7, "Email: "+r.EmployeeEmail)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	line := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(100, 7, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, fmt.Sprintf("%s %s", amount.StringFixed(2), r.Currency), "B", 1, "R", false, 0, "")
	}
	line("Base salary", r.BaseSalary, false)
	line("Allowances", r.Allowances, false)
	line("Gross", r.Gross, true)
	line("Deductions", r.Deductions, false)
	line("Loan repayment", r.LoanDeduction, false)
	line("Net pay", r.Net, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render payslip")
	}
	return buf.Bytes(), nil
}
