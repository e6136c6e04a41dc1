package notifications

const (
	TypeApprovalRequested  = "approval_requested"
	TypeRequestApproved    = "request_approved"
	TypeRequestRejected    = "request_rejected"
	TypeRequestCancelled   = "request_cancelled"
	TypePayslipPublished   = "payslip_published"
	TypeAppraisalAssigned  = "appraisal_assigned"
	TypeHandoverAssigned   = "handover_assigned"
	TypeInvitationAccepted = "invitation_accepted"
)
