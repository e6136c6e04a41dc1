package attendancehandler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/attendance"
	"hris/internal/domain/auth"
	"hris/internal/domain/settings"
	"hris/internal/transport/http/handlers/handlertest"
)

type memStore struct {
	records []attendance.Record
}

func (m *memStore) RecordForDay(_ context.Context, _, employeeID string, day time.Time) (attendance.Record, error) {
	for _, r := range m.records {
		if r.EmployeeID == employeeID && r.WorkDate.Equal(day) {
			return r, nil
		}
	}
	return attendance.Record{}, attendance.ErrNoRecord
}

func (m *memStore) InsertCheckIn(_ context.Context, _ string, rec attendance.Record) (string, error) {
	rec.ID = "rec-" + rec.EmployeeID
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *memStore) CompleteCheckOut(_ context.Context, _, id string, out time.Time, hours float64) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].CheckOut = &out
			m.records[i].Hours = hours
		}
	}
	return nil
}

func (m *memStore) ListRecords(_ context.Context, _ string, scope auth.Scope, _ attendance.Filter) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range m.records {
		if scope.Allows(r.EmployeeID, "") {
			out = append(out, r)
		}
	}
	return out, nil
}

type defaults struct{}

func (defaults) Get(context.Context, string) (settings.Settings, error) {
	return settings.Defaults(), nil
}

var worker = auth.UserContext{UserID: "u1", TenantID: "t1", EmployeeID: "e1", RoleName: auth.RoleEmployee}

func TestCheckInAndOut(t *testing.T) {
	svc := attendance.NewService(&memStore{}, defaults{})
	clock := time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	svc.Now = func() time.Time { return clock }
	router := handlertest.Router(NewHandler(svc, handlertest.Perms(t), nil))

	rec := handlertest.JSON(router, worker, http.MethodPost, "/attendance/check-out", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "not_checked_in", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, worker, http.MethodPost, "/attendance/check-in", `{"note":"train delay"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var in attendance.Record
	handlertest.Data(t, rec, &in)
	require.Equal(t, attendance.StatusLate, in.Status)

	rec = handlertest.JSON(router, worker, http.MethodPost, "/attendance/check-in", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "already_checked_in", handlertest.Decode(t, rec).Error.Code)

	clock = clock.Add(8 * time.Hour)
	var out attendance.Record
	handlertest.Data(t, handlertest.JSON(router, worker, http.MethodPost, "/attendance/check-out", nil), &out)
	require.InDelta(t, 8.0, out.Hours, 0.01)

	rec = handlertest.JSON(router, worker, http.MethodPost, "/attendance/check-out", nil)
	require.Equal(t, "already_checked_out", handlertest.Decode(t, rec).Error.Code)
}

func TestListRejectsBadDates(t *testing.T) {
	svc := attendance.NewService(&memStore{}, defaults{})
	router := handlertest.Router(NewHandler(svc, handlertest.Perms(t), nil))

	rec := handlertest.JSON(router, worker, http.MethodGet, "/attendance?from=2024-05-10&to=2024-05-01", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, handlertest.Decode(t, rec).Error.Details.Fields, 2)

	rec = handlertest.JSON(router, worker, http.MethodGet, "/attendance/summary?month=May", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := handlertest.Decode(t, rec)
	require.Equal(t, "validation_error", env.Error.Code)
	require.Equal(t, "month", env.Error.Details.Fields[0].Field)
}
