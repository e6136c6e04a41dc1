package attendance

import (
	"math"
	"sort"
	"time"
)

// StatusFor classifies a check-in against the late cutoff for its day.
func StatusFor(checkIn, lateAfter time.Time) string {
	if checkIn.After(lateAfter) {
		return StatusLate
	}
	return StatusPresent
}

// WorkedHours returns the span between check-in and check-out in hours,
// rounded to two decimals. A check-out before check-in counts as zero.
func WorkedHours(checkIn, checkOut time.Time) float64 {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	return math.Round(d.Hours()*100) / 100
}

// MonthRange parses YYYY-MM and returns [first day, first day of next month).
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Summarize folds records into per-employee totals ordered by name. Late days
// also count as days present.
func Summarize(records []Record) []Summary {
	byEmployee := map[string]*Summary{}
	for _, r := range records {
		s, ok := byEmployee[r.EmployeeID]
		if !ok {
			s = &Summary{EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName}
			byEmployee[r.EmployeeID] = s
		}
		switch r.Status {
		case StatusLate:
			s.DaysLate++
			s.DaysPresent++
		case StatusPresent:
			s.DaysPresent++
		}
		s.TotalHours += r.Hours
	}
	out := make([]Summary, 0, len(byEmployee))
	for _, s := range byEmployee {
		s.TotalHours = math.Round(s.TotalHours*100) / 100
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}
