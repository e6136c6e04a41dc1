package core

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
)

type fakeStore struct {
	employees   map[string]Employee
	departments map[string]Department
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{employees: map[string]Employee{}, departments: map[string]Department{}}
}

func (f *fakeStore) GetEmployee(_ context.Context, _, id string) (Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return emp, nil
}

func (f *fakeStore) ListEmployees(_ context.Context, _ string, filter EmployeeFilter) ([]Employee, error) {
	var out []Employee
	for _, emp := range f.employees {
		if filter.Status != "" && emp.Status != filter.Status {
			continue
		}
		out = append(out, emp)
	}
	return out, nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, _ string, emp Employee) (string, error) {
	f.nextID++
	emp.ID = "e" + strconv.Itoa(f.nextID)
	f.employees[emp.ID] = emp
	return emp.ID, nil
}

func (f *fakeStore) UpdateEmployee(_ context.Context, _, id string, emp Employee) error {
	if _, ok := f.employees[id]; !ok {
		return ErrNotFound
	}
	emp.ID = id
	f.employees[id] = emp
	return nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, _, id string, update ProfileUpdate) error {
	emp, ok := f.employees[id]
	if !ok {
		return ErrNotFound
	}
	emp.Phone, emp.Address = update.Phone, update.Address
	f.employees[id] = emp
	return nil
}

func (f *fakeStore) SetEmployeeStatus(_ context.Context, _, id, status string) error {
	emp, ok := f.employees[id]
	if !ok {
		return ErrNotFound
	}
	emp.Status = status
	f.employees[id] = emp
	return nil
}

func (f *fakeStore) ManagerIDByEmployeeID(_ context.Context, _, id string) (string, error) {
	emp, ok := f.employees[id]
	if !ok {
		return "", ErrNotFound
	}
	return emp.ManagerID, nil
}

func (f *fakeStore) ListDepartments(context.Context, string) ([]Department, error) {
	var out []Department
	for _, d := range f.departments {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) CreateDepartment(_ context.Context, _ string, dep Department) (string, error) {
	f.nextID++
	dep.ID = "d" + strconv.Itoa(f.nextID)
	f.departments[dep.ID] = dep
	return dep.ID, nil
}

func (f *fakeStore) UpdateDepartment(_ context.Context, _, id string, dep Department) error {
	dep.ID = id
	f.departments[id] = dep
	return nil
}

func (f *fakeStore) DepartmentHasEmployees(_ context.Context, _, id string) (bool, error) {
	for _, emp := range f.employees {
		if emp.DepartmentID == id && emp.Status == EmployeeStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteDepartment(_ context.Context, _, id string) error {
	delete(f.departments, id)
	return nil
}

func (f *fakeStore) UserIDsByRole(context.Context, string, string) ([]string, error) { return nil, nil }
func (f *fakeStore) ManagerUserID(context.Context, string, string) (string, error)    { return "", nil }
func (f *fakeStore) EmployeeUserID(context.Context, string, string) (string, error)   { return "", nil }

func seedTeam(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	salary := 5000.0
	store.employees["lead"] = Employee{ID: "lead", FirstName: "Lena", LastName: "Lead", Status: EmployeeStatusActive}
	store.employees["emp"] = Employee{ID: "emp", FirstName: "Eli", LastName: "Worker", ManagerID: "lead", Status: EmployeeStatusActive, Salary: &salary, NationalID: "N1"}
	store.employees["other"] = Employee{ID: "other", FirstName: "Olga", LastName: "Other", Status: EmployeeStatusActive}
	return NewService(store), store
}

func TestDeactivateEmployeeRules(t *testing.T) {
	ctx := context.Background()
	svc, store := seedTeam(t)

	_, err := svc.DeactivateEmployee(ctx, auth.UserContext{RoleName: auth.RoleEmployee, EmployeeID: "other"}, "emp")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.DeactivateEmployee(ctx, auth.UserContext{RoleName: auth.RoleAdmin}, "emp")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.DeactivateEmployee(ctx, auth.UserContext{RoleName: auth.RoleTeamLead, EmployeeID: "lead"}, "other")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.DeactivateEmployee(ctx, auth.UserContext{RoleName: auth.RoleHR, EmployeeID: "other"}, "other")
	require.ErrorIs(t, err, ErrSelfDelete)

	emp, err := svc.DeactivateEmployee(ctx, auth.UserContext{RoleName: auth.RoleTeamLead, EmployeeID: "lead"}, "emp")
	require.NoError(t, err)
	require.Equal(t, EmployeeStatusInactive, emp.Status)
	require.Nil(t, emp.Salary)
	require.Equal(t, EmployeeStatusInactive, store.employees["emp"].Status)
}

func TestUpdateEmployeeRejectsManagerCycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := seedTeam(t)

	lead := Employee{FirstName: "Lena", LastName: "Lead", ManagerID: "emp"}
	_, err := svc.UpdateEmployee(ctx, "t1", "lead", lead)
	require.ErrorIs(t, err, ErrManagerCycle)

	self := Employee{FirstName: "Eli", LastName: "Worker", ManagerID: "emp"}
	_, err = svc.UpdateEmployee(ctx, "t1", "emp", self)
	require.ErrorIs(t, err, ErrManagerCycle)

	moved := Employee{FirstName: "Eli", LastName: "Worker", ManagerID: "other"}
	got, err := svc.UpdateEmployee(ctx, "t1", "emp", moved)
	require.NoError(t, err)
	require.Equal(t, "other", got.ManagerID)
}

func TestEmployeeVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _ := seedTeam(t)

	own, err := svc.Profile(ctx, auth.UserContext{RoleName: auth.RoleEmployee, EmployeeID: "emp"})
	require.NoError(t, err)
	require.Nil(t, own.Salary)
	require.Empty(t, own.NationalID)

	seen, err := svc.GetEmployee(ctx, auth.UserContext{RoleName: auth.RoleHR}, "emp")
	require.NoError(t, err)
	require.NotNil(t, seen.Salary)
	require.Equal(t, "N1", seen.NationalID)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := seedTeam(t)

	got, err := svc.UpdateProfile(ctx, auth.UserContext{RoleName: auth.RoleEmployee, EmployeeID: "emp"}, ProfileUpdate{Phone: " 555-0100 ", Address: "1 Main St"})
	require.NoError(t, err)
	require.Equal(t, "555-0100", got.Phone)
	require.Equal(t, "1 Main St", got.Address)

	_, err = svc.UpdateProfile(ctx, auth.UserContext{RoleName: auth.RoleAdmin}, ProfileUpdate{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDepartmentInUse(t *testing.T) {
	ctx := context.Background()
	svc, store := seedTeam(t)

	id, err := svc.CreateDepartment(ctx, "t1", Department{Name: " Finance "})
	require.NoError(t, err)
	require.Equal(t, "Finance", store.departments[id].Name)

	emp := store.employees["emp"]
	emp.DepartmentID = id
	store.employees["emp"] = emp

	require.ErrorIs(t, svc.DeleteDepartment(ctx, "t1", id), ErrDepartmentInUse)

	emp.Status = EmployeeStatusInactive
	store.employees["emp"] = emp
	require.NoError(t, svc.DeleteDepartment(ctx, "t1", id))
	require.NotContains(t, store.departments, id)
}

func TestCreateEmployeeDefaults(t *testing.T) {
	svc, _ := seedTeam(t)
	got, err := svc.CreateEmployee(context.Background(), "t1", Employee{FirstName: " Ann ", LastName: "Lee", Email: " Ann@Example.com "})
	require.NoError(t, err)
	require.Equal(t, EmployeeStatusActive, got.Status)
	require.Equal(t, "ann@example.com", got.Email)
	require.Equal(t, "Ann", got.FirstName)

	_, err = svc.CreateEmployee(context.Background(), "t1", Employee{FirstName: "A", LastName: "B", ManagerID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}
