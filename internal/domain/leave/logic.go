package leave

import (
	"time"

	"hris/internal/domain/workflow"
)

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// CalculateRequestDays returns inclusive leave day count with optional half-day start/end boundaries.
func CalculateRequestDays(start, end time.Time, startHalf, endHalf bool) (float64, error) {
	days, err := CalculateDays(start, end)
	if err != nil {
		return 0, err
	}

	if dateOnly(start).Equal(dateOnly(end)) && startHalf && endHalf {
		return 0, ErrInvalidRange
	}

	if startHalf {
		days -= 0.5
	}
	if endHalf {
		days -= 0.5
	}
	if days <= 0 {
		return 0, ErrInvalidRange
	}
	return days, nil
}

// ChainFor picks the review chain. Requests longer than the threshold also
// need the managing director.
func ChainFor(days, mdThreshold float64) workflow.Chain {
	if days > mdThreshold {
		return workflow.LeaveChainWithMD
	}
	return workflow.LeaveChain
}

// Overlaps reports whether two inclusive date ranges share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !dateOnly(aEnd).Before(dateOnly(bStart)) && !dateOnly(bEnd).Before(dateOnly(aStart))
}

// HoldsDays reports whether a request in status still reserves or consumes balance.
func HoldsDays(status string) bool {
	return status == workflow.StatusApproved || workflow.IsPending(status)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
