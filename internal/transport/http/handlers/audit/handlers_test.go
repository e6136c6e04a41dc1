package audithandler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/transport/http/handlers/handlertest"
)

type fakeReader struct {
	events  []audit.Event
	filter  audit.Filter
	details bool
}

func (f *fakeReader) match(e audit.Event, filter audit.Filter) bool {
	if filter.Action != "" && e.Action != filter.Action {
		return false
	}
	if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && !e.CreatedAt.Before(*filter.Until) {
		return false
	}
	return true
}

func (f *fakeReader) Count(_ context.Context, _ string, filter audit.Filter) (int, error) {
	n := 0
	for _, e := range f.events {
		if f.match(e, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeReader) List(_ context.Context, _ string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	f.filter, f.details = filter, includeDetails
	var out []audit.Event
	for _, e := range f.events {
		if f.match(e, filter) {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func day(d int) time.Time {
	return time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
}

func TestAuditList(t *testing.T) {
	reader := &fakeReader{events: []audit.Event{
		{ID: "a1", Action: "leave.request.approve", EntityType: "leave_request", CreatedAt: day(3)},
		{ID: "a2", Action: "leave.request.approve", EntityType: "leave_request", CreatedAt: day(5)},
		{ID: "a3", Action: "payroll.record.finalize", EntityType: "payroll_record", CreatedAt: day(5)},
		{ID: "a4", Action: "leave.request.approve", EntityType: "leave_request", CreatedAt: day(9)},
	}}
	router := handlertest.Router(NewHandler(reader, handlertest.Perms(t)))
	hr := auth.UserContext{UserID: "u-hr", TenantID: "t1", RoleName: auth.RoleHR}
	lead := auth.UserContext{UserID: "u-l", TenantID: "t1", RoleName: auth.RoleTeamLead}

	rec := handlertest.JSON(router, lead, http.MethodGet, "/audit", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var page struct {
		Items []audit.Event `json:"items"`
		Total int           `json:"total"`
		Limit int           `json:"limit"`
	}
	handlertest.Data(t, handlertest.JSON(router, hr, http.MethodGet,
		"/audit?action=leave.request.approve&from=2024-05-05&to=2024-05-09&limit=1&includeDetails=true", nil), &page)
	require.Equal(t, 2, page.Total)
	require.Equal(t, 1, page.Limit)
	require.Len(t, page.Items, 1)
	require.Equal(t, "a2", page.Items[0].ID)
	require.True(t, reader.details)
	require.True(t, reader.filter.Until.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)))

	rec = handlertest.JSON(router, hr, http.MethodGet, "/audit?from=2024-05-09&to=2024-05-01", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, handlertest.Decode(t, rec).Error.Details.Fields, 2)
}
