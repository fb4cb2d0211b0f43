package activity

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the requested bucket size.
type Granularity string

const (
	GranularitySeconds Granularity = "seconds"
	GranularityMinutes Granularity = "minutes"
	GranularityHours   Granularity = "hours"
	GranularityDays    Granularity = "days"
	GranularityWeeks   Granularity = "weeks"
	GranularityMonths  Granularity = "months"
	GranularityAll     Granularity = "ALL"
)

const (
	// MaxBuckets bounds the response size. Windows that would emit more
	// buckets are downsampled to a coarser interval, never truncated.
	MaxBuckets = 2000

	day = 24 * time.Hour

	// Guardrails on fine-grained spans.
	maxSecondsSpan = 7 * day
	maxMinutesSpan = 30 * day

	// Beyond this the span itself would overflow time.Duration.
	maxRangeDays = 100_000
)

var baseIntervals = map[Granularity]time.Duration{
	GranularitySeconds: time.Second,
	GranularityMinutes: time.Minute,
	GranularityHours:   time.Hour,
	GranularityDays:    day,
	GranularityWeeks:   7 * day,
	GranularityMonths:  30 * day,
	GranularityAll:     day,
}

// ladder orders the named granularities for downsampling promotion.
var ladder = []Granularity{
	GranularitySeconds,
	GranularityMinutes,
	GranularityHours,
	GranularityDays,
	GranularityWeeks,
	GranularityMonths,
}

// TimeWindow is a resolved aggregation window. Effective differs from
// Granularity only when the bucket cap forced a coarser interval.
type TimeWindow struct {
	Start           time.Time     `json:"start"`
	End             time.Time     `json:"end"`
	Granularity     Granularity   `json:"granularity"`
	Effective       Granularity   `json:"effective_granularity"`
	Interval        time.Duration `json:"-"`
	IntervalSeconds int64         `json:"interval_seconds"`
	Buckets         int           `json:"buckets"`
}

// ParseGranularity maps a path segment to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(s))
	if strings.EqualFold(s, string(GranularityAll)) {
		g = GranularityAll
	}
	if _, ok := baseIntervals[g]; !ok {
		return "", newError(CodeInvalidRange, "unknown granularity %q", s)
	}
	return g, nil
}

// ResolveWindow turns (granularity, signed day range) into a concrete window.
// rangeDays > 0 anchors at firstSeen (the address's first observed activity);
// rangeDays < 0 anchors the window's end at now. firstSeen may be zero, in
// which case a positive range falls back to the trailing window.
func ResolveWindow(g Granularity, rangeDays int, now, firstSeen time.Time) (TimeWindow, error) {
	interval, ok := baseIntervals[g]
	if !ok {
		return TimeWindow{}, newError(CodeInvalidRange, "unknown granularity %q", g)
	}
	if rangeDays == 0 {
		return TimeWindow{}, newError(CodeEmptyRange, "range must be a nonzero day count")
	}

	days := rangeDays
	if days < 0 {
		days = -days
	}
	if days > maxRangeDays {
		return TimeWindow{}, newError(CodeInvalidRange, "range of %d days is out of bounds", days)
	}

	span := time.Duration(days) * day
	switch g {
	case GranularitySeconds:
		if span > maxSecondsSpan {
			return TimeWindow{}, newError(CodeRangeTooLarge,
				"seconds granularity is capped at %d days, got %d", int(maxSecondsSpan/day), days)
		}
	case GranularityMinutes:
		if span > maxMinutesSpan {
			return TimeWindow{}, newError(CodeRangeTooLarge,
				"minutes granularity is capped at %d days, got %d", int(maxMinutesSpan/day), days)
		}
	}

	var start time.Time
	if rangeDays > 0 && !firstSeen.IsZero() {
		start = firstSeen.UTC().Truncate(interval)
	} else {
		start = now.UTC().Add(-span)
	}
	end := start.Add(span)

	effective := g
	count := bucketCount(span, interval)
	for count > MaxBuckets {
		next, ok := coarser(effective)
		if !ok {
			// Already at months; scale the interval in month steps and keep the name.
			month := baseIntervals[GranularityMonths]
			interval = (span/MaxBuckets/month + 1) * month
			count = bucketCount(span, interval)
			break
		}
		effective = next
		interval = baseIntervals[effective]
		count = bucketCount(span, interval)
	}

	return TimeWindow{
		Start:           start,
		End:             end,
		Granularity:     g,
		Effective:       effective,
		Interval:        interval,
		IntervalSeconds: int64(interval / time.Second),
		Buckets:         count,
	}, nil
}

// bucketCount is ceil(span/interval); the last bucket may be partial in time.
func bucketCount(span, interval time.Duration) int {
	n := span / interval
	if span%interval != 0 {
		n++
	}
	return int(n)
}

// coarser returns the next named granularity up the ladder. GranularityAll
// buckets by day, so it promotes from the days rung.
func coarser(g Granularity) (Granularity, bool) {
	if g == GranularityAll {
		g = GranularityDays
	}
	for i, name := range ladder {
		if name == g {
			if i+1 < len(ladder) {
				return ladder[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// DescribeRange renders the human-readable range description for a report.
func DescribeRange(rangeDays int) string {
	unit := "days"
	if rangeDays == 1 || rangeDays == -1 {
		unit = "day"
	}
	if rangeDays < 0 {
		return fmt.Sprintf("last %d %s", -rangeDays, unit)
	}
	return fmt.Sprintf("first %d %s from first observed activity", rangeDays, unit)
}
