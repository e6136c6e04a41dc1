package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hris/internal/platform/metrics"
)

type run struct {
	tenantID, jobType, status string
	details                   []byte
}

type memRecorder struct {
	mu   sync.Mutex
	runs map[string]*run
	seq  int
}

func (m *memRecorder) Start(_ context.Context, tenantID, jobType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = map[string]*run{}
	}
	m.seq++
	id := strconv.Itoa(m.seq)
	m.runs[id] = &run{tenantID: tenantID, jobType: jobType, status: StatusRunning}
	return id, nil
}

func (m *memRecorder) Finish(_ context.Context, runID, status string, details []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].status = status
	m.runs[runID].details = details
	return nil
}

func (m *memRecorder) statuses() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for _, r := range m.runs {
		out[r.jobType] = r.status
	}
	return out
}

func TestRunNowRecordsOutcome(t *testing.T) {
	rec := &memRecorder{}
	svc := New(rec, metrics.New())
	ctx := context.Background()

	details, err := svc.RunNow(ctx, "ok", "t1", func(context.Context) (any, error) {
		return map[string]int{"sent": 3}, nil
	})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"sent": 3}, details)

	_, err = svc.RunNow(ctx, "broken", "", func(context.Context) (any, error) {
		return nil, errors.New("smtp down")
	})
	require.EqualError(t, err, "smtp down")

	_, err = svc.RunNow(ctx, "panics", "", func(context.Context) (any, error) {
		panic("boom")
	})
	require.ErrorContains(t, err, "boom")

	require.Equal(t, map[string]string{"ok": StatusCompleted, "broken": StatusFailed, "panics": StatusFailed}, rec.statuses())
	for _, r := range rec.runs {
		if r.jobType == "ok" {
			var got map[string]int
			require.NoError(t, json.Unmarshal(r.details, &got))
			require.Equal(t, 3, got["sent"])
			require.Equal(t, "t1", r.tenantID)
		}
	}
}

func TestWorkerAndSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(nil, nil)
	done := make(chan string, 4)
	svc.Every("cleanup", 10*time.Millisecond, func(context.Context) (any, error) {
		select {
		case done <- "cleanup":
		default:
		}
		return nil, nil
	})
	svc.Every("disabled", 0, func(context.Context) (any, error) {
		done <- "disabled"
		return nil, nil
	})
	svc.Start(ctx)
	svc.Enqueue("email", "t1", func(context.Context) (any, error) {
		done <- "email"
		return nil, nil
	})

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for !seen["email"] || !seen["cleanup"] {
		select {
		case name := <-done:
			seen[name] = true
		case <-timeout:
			t.Fatalf("jobs did not run, saw %v", seen)
		}
	}
	require.False(t, seen["disabled"])
}
