package utils

import "time"

const (
	DateOnly = "2006-01-02"
	DateTime = "2006-01-02 15:04"
)

// TimeOrDash formats a time value using the given layout, or returns "-" if zero.
func TimeOrDash(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(layout)
}

// YesNo renders a boolean flag for detail views.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
