package settings

import (
	"errors"
	"time"
)

const (
	DefaultWorkDayStart         = "09:00"
	DefaultLateGraceMinutes     = 15
	DefaultLeaveMDThresholdDays = 10.0
)

var ErrInvalidWorkDayStart = errors.New("work day start must be HH:MM")

// Settings are the tenant-wide knobs read by attendance, leave and notifications.
type Settings struct {
	CompanyName               string    `json:"companyName" validate:"max=200"`
	EmailNotificationsEnabled bool      `json:"emailNotificationsEnabled"`
	EmailFrom                 string    `json:"emailFrom" validate:"omitempty,email"`
	WorkDayStart              string    `json:"workDayStart" validate:"required"`
	LateGraceMinutes          int       `json:"lateGraceMinutes" validate:"gte=0,lte=240"`
	LeaveMDThresholdDays      float64   `json:"leaveMdThresholdDays" validate:"gte=0"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

func Defaults() Settings {
	return Settings{
		WorkDayStart:         DefaultWorkDayStart,
		LateGraceMinutes:     DefaultLateGraceMinutes,
		LeaveMDThresholdDays: DefaultLeaveMDThresholdDays,
	}
}

// LateAfter is the instant on day after which a check-in counts as late.
func (s Settings) LateAfter(day time.Time) (time.Time, error) {
	start, err := time.Parse("15:04", s.WorkDayStart)
	if err != nil {
		return time.Time{}, ErrInvalidWorkDayStart
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, day.Location()).
		Add(time.Duration(s.LateGraceMinutes) * time.Minute), nil
}
