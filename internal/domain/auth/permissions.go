package auth

const (
	PermEmployeesRead   = "core.employees.read"
	PermEmployeesWrite  = "core.employees.write"
	PermOrgRead         = "core.org.read"
	PermOrgWrite        = "core.org.write"
	PermRecordsDelete   = "records.delete"
	PermAttendanceRead  = "attendance.read"
	PermAttendanceWrite = "attendance.write"
	PermLeaveRead       = "leave.read"
	PermLeaveWrite      = "leave.write"
	PermLeaveApprove    = "leave.approve"
	PermLeaveManage     = "leave.manage"
	PermHandoverRead    = "handover.read"
	PermHandoverWrite   = "handover.write"
	PermHandoverApprove = "handover.approve"
	PermAppraisalRead   = "appraisal.read"
	PermAppraisalWrite  = "appraisal.write"
	PermAppraisalReview = "appraisal.review"
	PermAppraisalManage = "appraisal.manage"
	PermLoanRead        = "loan.read"
	PermLoanWrite       = "loan.write"
	PermLoanApprove     = "loan.approve"
	PermPayrollRead     = "payroll.read"
	PermPayrollWrite    = "payroll.write"
	PermPayrollFinalize = "payroll.finalize"
	PermRecruitRead     = "recruitment.read"
	PermRecruitWrite    = "recruitment.write"
	PermDocumentsRead   = "documents.read"
	PermDocumentsWrite  = "documents.write"
	PermInvitesWrite    = "invitations.write"
	PermSettingsRead    = "settings.read"
	PermSettingsWrite   = "settings.write"
	PermAuditRead       = "audit.read"
	PermSystemAdmin     = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermOrgRead,
	PermOrgWrite,
	PermRecordsDelete,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermLeaveManage,
	PermHandoverRead,
	PermHandoverWrite,
	PermHandoverApprove,
	PermAppraisalRead,
	PermAppraisalWrite,
	PermAppraisalReview,
	PermAppraisalManage,
	PermLoanRead,
	PermLoanWrite,
	PermLoanApprove,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollFinalize,
	PermRecruitRead,
	PermRecruitWrite,
	PermDocumentsRead,
	PermDocumentsWrite,
	PermInvitesWrite,
	PermSettingsRead,
	PermSettingsWrite,
	PermAuditRead,
	PermSystemAdmin,
}

var selfService = []string{
	PermEmployeesRead,
	PermOrgRead,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermLeaveRead,
	PermLeaveWrite,
	PermHandoverRead,
	PermHandoverWrite,
	PermAppraisalRead,
	PermAppraisalWrite,
	PermLoanRead,
	PermLoanWrite,
	PermPayrollRead,
	PermDocumentsRead,
	PermDocumentsWrite,
	PermSettingsRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: selfService,
	RoleTeamLead: with(selfService,
		PermRecordsDelete,
		PermLeaveApprove,
		PermHandoverApprove,
		PermAppraisalReview,
		PermRecruitRead,
	),
	RoleHR: with(selfService,
		PermEmployeesWrite,
		PermOrgWrite,
		PermRecordsDelete,
		PermLeaveApprove,
		PermLeaveManage,
		PermHandoverApprove,
		PermAppraisalReview,
		PermAppraisalManage,
		PermLoanApprove,
		PermPayrollWrite,
		PermPayrollFinalize,
		PermRecruitRead,
		PermRecruitWrite,
		PermInvitesWrite,
		PermSettingsWrite,
		PermAuditRead,
	),
	RoleMD: with(selfService,
		PermLeaveApprove,
		PermAppraisalReview,
		PermLoanApprove,
		PermRecruitRead,
		PermAuditRead,
	),
	RoleAdmin: with(selfService,
		PermEmployeesWrite,
		PermOrgWrite,
		PermLeaveApprove,
		PermLeaveManage,
		PermHandoverApprove,
		PermAppraisalReview,
		PermAppraisalManage,
		PermLoanApprove,
		PermRecruitRead,
		PermRecruitWrite,
		PermInvitesWrite,
		PermSettingsWrite,
		PermAuditRead,
		PermSystemAdmin,
	),
}

func with(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
