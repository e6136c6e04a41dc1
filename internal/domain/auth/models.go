package auth

import "time"

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type AuthUser struct {
	ID           string
	TenantID     string
	EmployeeID   string
	Email        string
	RoleName     string
	Password     string
	Status       string
	MFAEnabled   bool
	MFASecretEnc []byte
	LastLogin    *time.Time
}

type SessionUser struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	EmployeeID string `json:"employeeId,omitempty"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

type LoginResult struct {
	Token          string       `json:"token,omitempty"`
	MFARequired    bool         `json:"mfaRequired"`
	ChallengeToken string       `json:"challengeToken,omitempty"`
	User           *SessionUser `json:"user,omitempty"`
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

type PasswordReset struct {
	UserID  string
	Email   string
	Token   string
	Expires time.Time
}

type Me struct {
	User        SessionUser `json:"user"`
	MFAEnabled  bool        `json:"mfaEnabled"`
	Permissions []string    `json:"permissions"`
	CanDelete   bool        `json:"canDelete"`
}

func (u AuthUser) Session() SessionUser {
	return SessionUser{ID: u.ID, TenantID: u.TenantID, EmployeeID: u.EmployeeID, Email: u.Email, Role: u.RoleName}
}
