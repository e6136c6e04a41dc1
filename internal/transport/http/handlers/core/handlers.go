package corehandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *core.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleGetProfile)
		r.Put("/", h.handleUpdateProfile)
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermRecordsDelete, h.Perms)).Delete("/", h.handleDeleteEmployee)
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Post("/", h.handleCreateDepartment)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Put("/{departmentID}", h.handleUpdateDepartment)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Delete("/{departmentID}", h.handleDeleteDepartment)
	})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Profile(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload core.ProfileUpdate
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	emp, err := h.Service.UpdateProfile(r.Context(), user, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.profile.update", "employee", user.EmployeeID, nil, payload)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := core.EmployeeFilter{
		DepartmentID: strings.TrimSpace(query.Get("departmentId")),
		ManagerID:    strings.TrimSpace(query.Get("managerId")),
		Status:       strings.TrimSpace(query.Get("status")),
		Query:        strings.TrimSpace(query.Get("q")),
	}
	employees, err := h.Service.ListEmployees(r.Context(), user, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(employees, shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload core.Employee
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	emp, err := h.Service.CreateEmployee(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.employee.create", "employee", emp.ID, nil, auditView(emp))
	core.FilterEmployeeFields(&emp, user)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	var payload core.Employee
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	before, err := h.Service.GetEmployee(r.Context(), user, employeeID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	emp, err := h.Service.UpdateEmployee(r.Context(), user.TenantID, employeeID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.employee.update", "employee", employeeID, auditView(before), auditView(emp))
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	emp, err := h.Service.DeactivateEmployee(r.Context(), user, employeeID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.employee.deactivate", "employee", employeeID, nil, map[string]string{"status": emp.Status})
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	deps, err := h.Service.ListDepartments(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, deps, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload core.Department
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	id, err := h.Service.CreateDepartment(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.department.create", "department", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	departmentID := chi.URLParam(r, "departmentID")
	var payload core.Department
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if err := h.Service.UpdateDepartment(r.Context(), user.TenantID, departmentID, payload); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.department.update", "department", departmentID, nil, payload)
	api.Success(w, map[string]string{"id": departmentID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	departmentID := chi.URLParam(r, "departmentID")
	if err := h.Service.DeleteDepartment(r.Context(), user.TenantID, departmentID); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.department.delete", "department", departmentID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// auditView keeps sensitive values out of the audit trail.
func auditView(emp core.Employee) core.Employee {
	emp.NationalID = ""
	emp.BankAccount = ""
	emp.Salary = nil
	return emp
}
