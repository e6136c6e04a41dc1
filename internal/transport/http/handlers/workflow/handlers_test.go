package workflowhandler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
	"hris/internal/transport/http/handlers/handlertest"
)

func TestBadges(t *testing.T) {
	router := handlertest.Router(NewHandler())

	rec := handlertest.JSON(router, auth.UserContext{}, http.MethodGet, "/workflow/badges", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var out struct {
		Badges  map[string]workflow.Badge `json:"badges"`
		Unknown workflow.Badge            `json:"unknown"`
	}
	user := auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleEmployee}
	handlertest.Data(t, handlertest.JSON(router, user, http.MethodGet, "/workflow/badges", nil), &out)
	require.Equal(t, workflow.Badge{Label: "Pending HR", Color: workflow.ColorAmber}, out.Badges[workflow.StatusPendingHR])
	require.Equal(t, workflow.ColorRed, out.Badges[workflow.StatusRejected].Color)
	require.Equal(t, workflow.UnknownBadge, out.Unknown)
}
