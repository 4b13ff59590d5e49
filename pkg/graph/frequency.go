package graph

import (
	"time"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
)

// sameBucket reports whether a and b fall in the same selection bucket for
// freq, using the cascading same-year -> same-month -> same-week -> same-day
// -> same-hour check order spec.md §4.1 specifies: each finer-grained check
// is only meaningful once the coarser one already holds, so a year mismatch
// short-circuits every finer comparison to "different".
func sameBucket(freq collectorkey.Frequency, a, b time.Time) bool {
	sameYear := a.Year() == b.Year()

	switch freq {
	case collectorkey.FrequencyPerCommit:
		return false
	case collectorkey.FrequencyYearly:
		return sameYear
	case collectorkey.FrequencyMonthly:
		return sameYear && a.Month() == b.Month()
	case collectorkey.FrequencyWeekly:
		sameMonth := sameYear && a.Month() == b.Month()
		if !sameMonth {
			return false
		}

		aYear, aWeek := a.ISOWeek()
		bYear, bWeek := b.ISOWeek()

		return aYear == bYear && aWeek == bWeek
	case collectorkey.FrequencyDaily:
		return sameWeek(a, b) && day0(a) == day0(b)
	case collectorkey.FrequencyHourly:
		return sameWeek(a, b) && day0(a) == day0(b) && a.Hour() == b.Hour()
	default:
		return false
	}
}

func sameWeek(a, b time.Time) bool {
	sameMonth := a.Year() == b.Year() && a.Month() == b.Month()
	if !sameMonth {
		return false
	}

	aYear, aWeek := a.ISOWeek()
	bYear, bWeek := b.ISOWeek()

	return aYear == bYear && aWeek == bWeek
}

// day0 truncates t to its calendar date, used to compare "same day"
// independent of time-of-day.
func day0(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// shouldSelect decides whether the commit at `current` should be a selected
// commit for a metric at frequency freq, given the previously selected
// commit's time (hasPrev reports whether one exists yet) and whether this is
// the last commit in the overall ascending-time walk with forceLatest set.
func shouldSelect(freq collectorkey.Frequency, hasPrev bool, prev, current time.Time, isLast, forceLatest bool) bool {
	if isLast && forceLatest {
		return true
	}

	if freq == collectorkey.FrequencyPerCommit {
		return true
	}

	if !hasPrev {
		return true
	}

	return !sameBucket(freq, prev, current)
}
