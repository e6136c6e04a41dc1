package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildBaseQuery(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildBaseQuery("SELECT COUNT(1)", "t1", Filter{Action: "leave.approve", EntityID: "l1", Since: &since})
	require.Equal(t, "SELECT COUNT(1) FROM audit_events WHERE tenant_id = $1 AND action = $2 AND entity_id = $3 AND created_at >= $4", query)
	require.Equal(t, []any{"t1", "leave.approve", "l1", since}, args)

	query, args = buildBaseQuery("SELECT id", "t1", Filter{})
	require.Equal(t, "SELECT id FROM audit_events WHERE tenant_id = $1", query)
	require.Len(t, args, 1)
}

func TestMarshalState(t *testing.T) {
	payload, err := marshalState(nil)
	require.NoError(t, err)
	require.Nil(t, payload)

	payload, err = marshalState(map[string]string{"status": "approved"})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"approved"}`, string(payload))
}
