package core

import (
	"context"
	"strings"

	"hris/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) GetEmployee(ctx context.Context, user auth.UserContext, employeeID string) (Employee, error) {
	emp, err := s.store.GetEmployee(ctx, user.TenantID, employeeID)
	if err != nil {
		return Employee{}, err
	}
	FilterEmployeeFields(&emp, user)
	return emp, nil
}

// ListEmployees returns the directory, ranked by fuzzy match when filter.Query is set.
func (s *Service) ListEmployees(ctx context.Context, user auth.UserContext, filter EmployeeFilter) ([]Employee, error) {
	employees, err := s.store.ListEmployees(ctx, user.TenantID, filter)
	if err != nil {
		return nil, err
	}
	employees = RankEmployees(filter.Query, employees)
	for i := range employees {
		FilterEmployeeFields(&employees[i], user)
	}
	return employees, nil
}

func (s *Service) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error) {
	normalizeEmployee(&emp)
	if emp.ManagerID != "" {
		if _, err := s.store.GetEmployee(ctx, tenantID, emp.ManagerID); err != nil {
			return Employee{}, err
		}
	}
	id, err := s.store.CreateEmployee(ctx, tenantID, emp)
	if err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, tenantID, id)
}

func (s *Service) UpdateEmployee(ctx context.Context, tenantID, employeeID string, emp Employee) (Employee, error) {
	normalizeEmployee(&emp)
	if err := s.checkManager(ctx, tenantID, employeeID, emp.ManagerID); err != nil {
		return Employee{}, err
	}
	if err := s.store.UpdateEmployee(ctx, tenantID, employeeID, emp); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, tenantID, employeeID)
}

// checkManager walks up from the proposed manager and refuses the
// assignment if it reaches the employee.
func (s *Service) checkManager(ctx context.Context, tenantID, employeeID, managerID string) error {
	seen := map[string]bool{}
	for current := managerID; current != ""; {
		if current == employeeID {
			return ErrManagerCycle
		}
		if seen[current] {
			return ErrManagerCycle
		}
		seen[current] = true
		next, err := s.store.ManagerIDByEmployeeID(ctx, tenantID, current)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

// DeactivateEmployee is the delete action. Only roles offered delete may use
// it, a team lead only on direct reports, and never on the caller's own record.
func (s *Service) DeactivateEmployee(ctx context.Context, user auth.UserContext, employeeID string) (Employee, error) {
	if !auth.CanDelete(user.RoleName) {
		return Employee{}, ErrForbidden
	}
	if user.EmployeeID != "" && user.EmployeeID == employeeID {
		return Employee{}, ErrSelfDelete
	}
	emp, err := s.store.GetEmployee(ctx, user.TenantID, employeeID)
	if err != nil {
		return Employee{}, err
	}
	if auth.NormalizeRole(user.RoleName) == auth.RoleTeamLead && emp.ManagerID != user.EmployeeID {
		return Employee{}, ErrForbidden
	}
	if err := s.store.SetEmployeeStatus(ctx, user.TenantID, employeeID, EmployeeStatusInactive); err != nil {
		return Employee{}, err
	}
	emp.Status = EmployeeStatusInactive
	FilterEmployeeFields(&emp, user)
	return emp, nil
}

func (s *Service) Profile(ctx context.Context, user auth.UserContext) (Employee, error) {
	if user.EmployeeID == "" {
		return Employee{}, ErrNotFound
	}
	return s.GetEmployee(ctx, user, user.EmployeeID)
}

func (s *Service) UpdateProfile(ctx context.Context, user auth.UserContext, update ProfileUpdate) (Employee, error) {
	if user.EmployeeID == "" {
		return Employee{}, ErrNotFound
	}
	update.Phone = strings.TrimSpace(update.Phone)
	update.Address = strings.TrimSpace(update.Address)
	if err := s.store.UpdateProfile(ctx, user.TenantID, user.EmployeeID, update); err != nil {
		return Employee{}, err
	}
	return s.GetEmployee(ctx, user, user.EmployeeID)
}

func (s *Service) ListDepartments(ctx context.Context, tenantID string) ([]Department, error) {
	return s.store.ListDepartments(ctx, tenantID)
}

func (s *Service) CreateDepartment(ctx context.Context, tenantID string, dep Department) (string, error) {
	dep.Name = strings.TrimSpace(dep.Name)
	return s.store.CreateDepartment(ctx, tenantID, dep)
}

func (s *Service) UpdateDepartment(ctx context.Context, tenantID, departmentID string, dep Department) error {
	dep.Name = strings.TrimSpace(dep.Name)
	return s.store.UpdateDepartment(ctx, tenantID, departmentID, dep)
}

func (s *Service) DeleteDepartment(ctx context.Context, tenantID, departmentID string) error {
	inUse, err := s.store.DepartmentHasEmployees(ctx, tenantID, departmentID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrDepartmentInUse
	}
	return s.store.DeleteDepartment(ctx, tenantID, departmentID)
}

func (s *Service) ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error) {
	return s.store.ManagerIDByEmployeeID(ctx, tenantID, employeeID)
}

func (s *Service) UserIDsByRole(ctx context.Context, tenantID, role string) ([]string, error) {
	return s.store.UserIDsByRole(ctx, tenantID, role)
}

func (s *Service) ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	return s.store.ManagerUserID(ctx, tenantID, employeeID)
}

func (s *Service) EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	return s.store.EmployeeUserID(ctx, tenantID, employeeID)
}

// IsManagerOf reports whether managerEmployeeID is the direct team lead of employeeID.
func (s *Service) IsManagerOf(ctx context.Context, tenantID, managerEmployeeID, employeeID string) (bool, error) {
	if managerEmployeeID == "" {
		return false, nil
	}
	managerID, err := s.store.ManagerIDByEmployeeID(ctx, tenantID, employeeID)
	if err != nil {
		return false, err
	}
	return managerID == managerEmployeeID, nil
}

func normalizeEmployee(emp *Employee) {
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	emp.LastName = strings.TrimSpace(emp.LastName)
	emp.Email = strings.ToLower(strings.TrimSpace(emp.Email))
	if emp.Status == "" {
		emp.Status = EmployeeStatusActive
	}
}
