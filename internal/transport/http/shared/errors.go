package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"hris/internal/domain/appraisal"
	"hris/internal/domain/attendance"
	"hris/internal/domain/auth"
	"hris/internal/domain/core"
	"hris/internal/domain/documents"
	"hris/internal/domain/handover"
	"hris/internal/domain/invitations"
	"hris/internal/domain/leave"
	"hris/internal/domain/loan"
	"hris/internal/domain/notifications"
	"hris/internal/domain/payroll"
	"hris/internal/domain/recruitment"
	"hris/internal/domain/settings"
	"hris/internal/domain/workflow"
	"hris/internal/platform/storage"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable is checked in order; the first errors.Is match wins.
var errorTable = []errorMapping{
	{workflow.ErrStaleState, http.StatusConflict, "stale_state"},
	{workflow.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{workflow.ErrForbidden, http.StatusForbidden, "forbidden"},
	{workflow.ErrSelfReview, http.StatusForbidden, "self_review"},
	{workflow.ErrNotOwner, http.StatusForbidden, "not_owner"},
	{workflow.ErrNoteRequired, http.StatusBadRequest, "note_required"},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrMFAInvalid, http.StatusUnauthorized, "invalid_mfa_code"},
	{auth.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
	{auth.ErrMFAUnavailable, http.StatusConflict, "mfa_unavailable"},
	{auth.ErrMFANotConfigured, http.StatusConflict, "mfa_not_configured"},
	{auth.ErrInvalidToken, http.StatusBadRequest, "invalid_token"},
	{auth.ErrNotFound, http.StatusNotFound, "not_found"},

	{core.ErrForbidden, http.StatusForbidden, "forbidden"},
	{core.ErrManagerCycle, http.StatusConflict, "manager_cycle"},
	{core.ErrDepartmentInUse, http.StatusConflict, "department_in_use"},
	{core.ErrDuplicate, http.StatusConflict, "duplicate"},
	{core.ErrSelfDelete, http.StatusConflict, "self_delete"},
	{core.ErrNotFound, http.StatusNotFound, "not_found"},

	{attendance.ErrAlreadyCheckedIn, http.StatusConflict, "already_checked_in"},
	{attendance.ErrNotCheckedIn, http.StatusConflict, "not_checked_in"},
	{attendance.ErrAlreadyCheckedOut, http.StatusConflict, "already_checked_out"},
	{attendance.ErrInvalidMonth, http.StatusBadRequest, "invalid_month"},
	{attendance.ErrNoEmployee, http.StatusForbidden, "no_employee_record"},
	{attendance.ErrNoRecord, http.StatusNotFound, "not_found"},

	{leave.ErrNotFound, http.StatusNotFound, "not_found"},
	{leave.ErrNoEmployee, http.StatusForbidden, "no_employee_record"},
	{leave.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
	{leave.ErrOverlap, http.StatusConflict, "overlap"},
	{leave.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{leave.ErrDuplicateType, http.StatusConflict, "duplicate"},

	{handover.ErrNotFound, http.StatusNotFound, "not_found"},
	{handover.ErrLeaveNotFound, http.StatusNotFound, "not_found"},
	{handover.ErrNoEmployee, http.StatusForbidden, "no_employee_record"},
	{handover.ErrSelfColleague, http.StatusBadRequest, "invalid_colleague"},
	{handover.ErrNoFile, http.StatusNotFound, "no_attachment"},

	{appraisal.ErrNotFound, http.StatusNotFound, "not_found"},
	{appraisal.ErrDuplicate, http.StatusConflict, "duplicate"},
	{appraisal.ErrNotEditable, http.StatusConflict, "invalid_state"},
	{appraisal.ErrNoObjectives, http.StatusBadRequest, "invalid_objectives"},
	{appraisal.ErrWeightTotal, http.StatusBadRequest, "invalid_objectives"},
	{appraisal.ErrUnknownObjective, http.StatusBadRequest, "invalid_objectives"},
	{appraisal.ErrInvalidScore, http.StatusBadRequest, "invalid_score"},
	{appraisal.ErrScoresMissing, http.StatusBadRequest, "invalid_score"},
	{appraisal.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},

	{loan.ErrNotFound, http.StatusNotFound, "not_found"},
	{loan.ErrNoEmployee, http.StatusForbidden, "no_employee_record"},
	{loan.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{loan.ErrInvalidInstallments, http.StatusBadRequest, "invalid_installments"},

	{payroll.ErrNotFound, http.StatusNotFound, "not_found"},
	{payroll.ErrDuplicate, http.StatusConflict, "duplicate"},
	{payroll.ErrFinalized, http.StatusConflict, "finalized"},
	{payroll.ErrNotFinalized, http.StatusConflict, "not_finalized"},
	{payroll.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},
	{payroll.ErrNegativeValue, http.StatusBadRequest, "invalid_amount"},
	{payroll.ErrNegativeNet, http.StatusBadRequest, "invalid_amount"},
	{payroll.ErrUnknownFormat, http.StatusBadRequest, "invalid_format"},

	{recruitment.ErrPostingNotFound, http.StatusNotFound, "not_found"},
	{recruitment.ErrCandidateNotFound, http.StatusNotFound, "not_found"},
	{recruitment.ErrNoCV, http.StatusNotFound, "no_attachment"},
	{recruitment.ErrPostingClosed, http.StatusConflict, "posting_closed"},
	{recruitment.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{recruitment.ErrInvalidStage, http.StatusBadRequest, "invalid_stage"},
	{recruitment.ErrBackwardMove, http.StatusConflict, "invalid_state"},
	{recruitment.ErrTerminalStage, http.StatusConflict, "invalid_state"},
	{recruitment.ErrStageChanged, http.StatusConflict, "stale_state"},
	{recruitment.ErrDuplicate, http.StatusConflict, "duplicate"},

	{documents.ErrNotFound, http.StatusNotFound, "not_found"},
	{documents.ErrForbidden, http.StatusForbidden, "forbidden"},

	{invitations.ErrNotFound, http.StatusNotFound, "not_found"},
	{invitations.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
	{invitations.ErrNotPending, http.StatusConflict, "invalid_state"},
	{invitations.ErrAlreadyExists, http.StatusConflict, "duplicate"},
	{invitations.ErrUnsupported, http.StatusUnsupportedMediaType, "unsupported_file"},
	{invitations.ErrEmptyFile, http.StatusBadRequest, "invalid_file"},
	{invitations.ErrTooManyRows, http.StatusBadRequest, "invalid_file"},
	{invitations.ErrMissingColumns, http.StatusBadRequest, "invalid_file"},

	{notifications.ErrNotFound, http.StatusNotFound, "not_found"},
	{settings.ErrInvalidWorkDayStart, http.StatusBadRequest, "invalid_settings"},

	{storage.ErrEmpty, http.StatusBadRequest, "empty_file"},
	{storage.ErrTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
	{storage.ErrUnsupported, http.StatusUnsupportedMediaType, "unsupported_file"},
	{storage.ErrInvalidKey, http.StatusBadRequest, "invalid_key"},
	{storage.ErrNotFound, http.StatusNotFound, "not_found"},
}

// WriteError maps a service error onto the envelope. Unknown errors are
// logged and reported as internal_error without their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var policy *auth.PasswordPolicyError
	if errors.As(err, &policy) {
		issues := make([]ValidationIssue, 0, len(policy.Issues))
		for _, issue := range policy.Issues {
			issues = append(issues, ValidationIssue{Field: "password", Reason: issue})
		}
		FailValidation(w, requestID, issues)
		return
	}
	var rowErr *invitations.RowError
	if errors.As(err, &rowErr) {
		issues := make([]ValidationIssue, 0, len(rowErr.Row.Errors))
		for field, msg := range rowErr.Row.Errors {
			issues = append(issues, ValidationIssue{Field: field, Reason: msg})
		}
		FailValidation(w, requestID, sortIssues(issues))
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			api.Fail(w, m.status, m.code, err.Error(), requestID)
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"requestId", requestID,
		"err", err,
	)
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
