// Package cronx wraps robfig/cron's standard parser with the control
// plane's own error taxonomy.
package cronx

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kallihansen/jobplane/internal/domain"
)

// Next returns the smallest instant strictly after now at which expr
// fires. expr must be a standard 5-field cron expression (minute, hour,
// day-of-month, month, day-of-week). Returns domain.ErrInvalidCronExpression
// for malformed input.
func Next(expr string, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, domain.ErrInvalidCronExpression
	}
	return sched.Next(now), nil
}

// Validate reports whether expr parses as a standard 5-field cron
// expression, without computing a trigger time. Used at schedule-creation
// time so a bad cron string is rejected before any row is written.
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return domain.ErrInvalidCronExpression
	}
	return nil
}
