package core

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrManagerCycle    = errors.New("manager assignment would create a reporting cycle")
	ErrDepartmentInUse = errors.New("department still has employees")
	ErrDuplicate       = errors.New("already exists")
	ErrSelfDelete      = errors.New("cannot deactivate own record")
)
