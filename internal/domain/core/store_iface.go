package core

import "context"

type StoreAPI interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error)
	ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error)
	CreateEmployee(ctx context.Context, tenantID string, emp Employee) (string, error)
	UpdateEmployee(ctx context.Context, tenantID, employeeID string, emp Employee) error
	UpdateProfile(ctx context.Context, tenantID, employeeID string, update ProfileUpdate) error
	SetEmployeeStatus(ctx context.Context, tenantID, employeeID, status string) error
	ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error)
	ListDepartments(ctx context.Context, tenantID string) ([]Department, error)
	CreateDepartment(ctx context.Context, tenantID string, dep Department) (string, error)
	UpdateDepartment(ctx context.Context, tenantID, departmentID string, dep Department) error
	DepartmentHasEmployees(ctx context.Context, tenantID, departmentID string) (bool, error)
	DeleteDepartment(ctx context.Context, tenantID, departmentID string) error
	UserIDsByRole(ctx context.Context, tenantID, role string) ([]string, error)
	ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
}
