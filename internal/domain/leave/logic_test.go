package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/workflow"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateDays(t *testing.T) {
	days, err := CalculateDays(day(10), day(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	days, err = CalculateDays(day(10), day(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}
}

func TestCalculateDaysInvalid(t *testing.T) {
	_, err := CalculateDays(day(10), day(9))
	if err == nil {
		t.Fatal("expected error for invalid range")
	}
}

func TestCalculateRequestDays(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		startHalf bool
		endHalf   bool
		want      float64
		wantErr   bool
	}{
		{name: "full range", start: day(6), end: day(8), want: 3},
		{name: "half start", start: day(6), end: day(8), startHalf: true, want: 2.5},
		{name: "both halves", start: day(6), end: day(8), startHalf: true, endHalf: true, want: 2},
		{name: "single half day", start: day(6), end: day(6), startHalf: true, want: 0.5},
		{name: "same day both halves", start: day(6), end: day(6), startHalf: true, endHalf: true, wantErr: true},
		{name: "reversed", start: day(8), end: day(6), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateRequestDays(tc.start, tc.end, tc.startHalf, tc.endHalf)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestChainFor(t *testing.T) {
	require.Equal(t, workflow.LeaveChain, ChainFor(10, 10))
	require.Equal(t, workflow.LeaveChainWithMD, ChainFor(10.5, 10))
}

func TestOverlaps(t *testing.T) {
	require.True(t, Overlaps(day(1), day(5), day(5), day(7)))
	require.True(t, Overlaps(day(3), day(3), day(1), day(5)))
	require.False(t, Overlaps(day(1), day(4), day(5), day(7)))
}
