package authhandler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/invitations"
	"hris/internal/platform/email"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const JobResetEmail = "password_reset_email"

type Queue interface {
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error))
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type InviteAcceptor interface {
	Accept(ctx context.Context, code, password string) (invitations.Accepted, error)
}

type Handler struct {
	Service      *auth.Service
	Invites      InviteAcceptor
	Audit        shared.Auditor
	Queue        Queue
	Mailer       Mailer
	EmailFrom    string
	BaseURL      string
	SecureCookie bool
}

func NewHandler(service *auth.Service, invites InviteAcceptor, auditSvc shared.Auditor, queue Queue, mailer Mailer, emailFrom, baseURL string, secureCookie bool) *Handler {
	return &Handler{
		Service:      service,
		Invites:      invites,
		Audit:        auditSvc,
		Queue:        queue,
		Mailer:       mailer,
		EmailFrom:    emailFrom,
		BaseURL:      baseURL,
		SecureCookie: secureCookie,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/2fa/verify", h.handleVerifyMFA)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/request-reset", h.handleRequestReset)
		r.Post("/reset", h.handleReset)
		r.Post("/set-password", h.handleSetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
			r.Post("/change-password", h.handleChangePassword)
			r.Post("/2fa/setup", h.handleSetupMFA)
			r.Post("/2fa/enable", h.handleEnableMFA)
			r.Post("/2fa/disable", h.handleDisableMFA)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyRequest struct {
	ChallengeToken string `json:"challengeToken" validate:"required"`
	Code           string `json:"code" validate:"required,len=6,numeric"`
}

type codeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type setPasswordRequest struct {
	InviteCode string `json:"inviteCode" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.setSessionCookie(w, result.Token)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var payload verifyRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	result, err := h.Service.VerifyMFA(r.Context(), payload.ChallengeToken, payload.Code)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.setSessionCookie(w, result.Token)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := middleware.BearerToken(r)
	if raw == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	token, err := h.Service.Refresh(r.Context(), raw)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)
	api.Success(w, map[string]string{"token": token}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Logout(r.Context(), user); err != nil {
		slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	me, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, me, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload changePasswordRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "auth.password.change", "user", user.UserID, nil, nil)
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetupMFA(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	me, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	setup, err := h.Service.SetupMFA(r.Context(), user.UserID, me.User.Email)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEnableMFA(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) handleDisableMFA(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enable bool) {
	user, _ := middleware.GetUser(r.Context())
	var payload codeRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	toggle, action, status := h.Service.DisableMFA, "auth.mfa.disable", "disabled"
	if enable {
		toggle, action, status = h.Service.EnableMFA, "auth.mfa.enable", "enabled"
	}
	if err := toggle(r.Context(), user.UserID, payload.Code); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, action, "user", user.UserID, nil, nil)
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}

// handleRequestReset answers the same way whether or not the address is known.
func (h *Handler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	reset, found, err := h.Service.RequestReset(r.Context(), payload.Email)
	if err != nil {
		slog.Warn("password reset request failed", "err", err)
	}
	if found && err == nil {
		h.sendReset(reset)
	}
	api.Success(w, map[string]string{"status": "reset_requested"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) sendReset(reset auth.PasswordReset) {
	if h.Queue == nil || h.Mailer == nil {
		return
	}
	link := resetLink(h.BaseURL, reset.Token)
	h.Queue.Enqueue(JobResetEmail, "", func(ctx context.Context) (any, error) {
		msg := email.PasswordReset(link, reset.Expires)
		if err := h.Mailer.Send(ctx, h.EmailFrom, reset.Email, msg.Subject, msg.Body); err != nil {
			return nil, err
		}
		return map[string]string{"userId": reset.UserID}, nil
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	userID, err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	if me, err := h.Service.Me(r.Context(), userID); err == nil {
		actor := auth.UserContext{UserID: userID, TenantID: me.User.TenantID}
		shared.RecordAudit(r, h.Audit, actor, "auth.password.reset", "user", userID, nil, nil)
	}
	api.Success(w, map[string]string{"status": "password_reset"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var payload setPasswordRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	accepted, err := h.Invites.Accept(r.Context(), payload.InviteCode, payload.Password)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	actor := auth.UserContext{UserID: accepted.UserID, TenantID: accepted.TenantID}
	shared.RecordAudit(r, h.Audit, actor, "invitation.accept", "user", accepted.UserID, nil, accepted)
	api.Created(w, accepted, middleware.GetRequestID(r.Context()))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.Service.TokenTTL),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func resetLink(baseURL, token string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/reset-password?token=" + url.QueryEscape(token)
}
