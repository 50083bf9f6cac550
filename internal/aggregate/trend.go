package aggregate

import (
	"time"

	"rcca-backend/internal/domain"
)

type Period string

const (
	PeriodCustom  Period = "custom"
	PeriodAllTime Period = "all"
)

const (
	minMonths     = 12
	maxMonths     = 24
	maxCustomDays = 731
)

// Series is a labelled count series, one entry per bucket.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// Sum returns the total over every bucket.
func (s Series) Sum() int {
	n := 0
	for _, d := range s.Data {
		n += d
	}
	return n
}

// TrendQuery describes a trend request. From and To bound a custom range
// inclusively by calendar day in From's location. Now anchors an all-time
// series that has no records.
type TrendQuery struct {
	Factory string
	Period  Period
	From    time.Time
	To      time.Time
	Now     time.Time
}

// Trend buckets records by creation date. Each matching record lands in at
// most one bucket.
func Trend(records []domain.Record, q TrendQuery) (Series, error) {
	switch q.Period {
	case PeriodCustom:
		return dailyTrend(filterFactory(records, q.Factory), q.From, q.To)
	case PeriodAllTime, "":
		// the month axis spans every live record so factory series line up
		return monthlyTrend(filterFactory(records, ""), filterFactory(records, q.Factory), q.Now), nil
	default:
		return Series{}, &domain.ValidationError{Field: "period", Message: "unknown period " + string(q.Period)}
	}
}

func dailyTrend(records []domain.Record, from, to time.Time) (Series, error) {
	if from.IsZero() || to.IsZero() {
		return Series{}, &domain.ValidationError{Field: "range", Message: "from and to are required"}
	}
	loc := from.Location()
	start := day(from, loc)
	end := day(to, loc)
	if end.Before(start) {
		return Series{}, &domain.ValidationError{Field: "range", Message: "to is before from"}
	}
	n := daysBetween(start, end) + 1
	if n > maxCustomDays {
		return Series{}, &domain.ValidationError{Field: "range", Message: "range is too long"}
	}

	s := Series{Labels: make([]string, n), Data: make([]int, n)}
	for i := 0; i < n; i++ {
		s.Labels[i] = start.AddDate(0, 0, i).Format("2006-01-02")
	}
	for _, r := range records {
		if r.CreatedAt.IsZero() {
			continue
		}
		i := daysBetween(start, day(r.CreatedAt, loc))
		if i < 0 || i >= n {
			continue
		}
		s.Data[i]++
	}
	return s, nil
}

// monthlyTrend takes its range from axis and counts only matching.
func monthlyTrend(axis, matching []domain.Record, now time.Time) Series {
	var first, last time.Time
	for _, r := range axis {
		if r.CreatedAt.IsZero() {
			continue
		}
		c := r.CreatedAt.UTC()
		if first.IsZero() || c.Before(first) {
			first = c
		}
		if last.IsZero() || c.After(last) {
			last = c
		}
	}

	var start time.Time
	n := minMonths
	if first.IsZero() {
		if now.IsZero() {
			now = time.Now()
		}
		start = month(now.UTC()).AddDate(0, -(minMonths - 1), 0)
	} else {
		start = month(first)
		n = monthsBetween(start, month(last)) + 1
		if n < minMonths {
			n = minMonths
		}
		if n > maxMonths {
			n = maxMonths
		}
	}

	s := Series{Labels: make([]string, n), Data: make([]int, n)}
	for i := 0; i < n; i++ {
		s.Labels[i] = start.AddDate(0, i, 0).Format("Jan 2006")
	}
	for _, r := range matching {
		if r.CreatedAt.IsZero() {
			continue
		}
		i := monthsBetween(start, month(r.CreatedAt.UTC()))
		if i < 0 || i >= n {
			continue
		}
		s.Data[i]++
	}
	return s
}

// day normalises t to midnight UTC of its calendar date in loc, so day
// arithmetic is immune to DST shifts.
func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func month(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
