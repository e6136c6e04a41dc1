package core

import "hris/internal/domain/auth"

// FilterEmployeeFields blanks salary, bank and national id unless the viewer's role may see them.
// Employees do not see their own sensitive fields either; those are read through payroll.
func FilterEmployeeFields(emp *Employee, user auth.UserContext) {
	if auth.SeesSensitive(user.RoleName) {
		return
	}
	emp.NationalID = ""
	emp.BankAccount = ""
	emp.Salary = nil
}
