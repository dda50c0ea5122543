// Package segment provides interval arithmetic over a media timeline.
// It computes the segments of a recording worth keeping from the silence
// intervals a detector reports.
package segment

import "sort"

// Interval is a time range [Start, End) on a media timeline, in seconds.
type Interval struct {
	// Start is the beginning of the interval in seconds.
	Start float64
	// End is the end of the interval in seconds.
	End float64
}

// Duration returns the interval length in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Normalize returns a cleaned copy of intervals: each interval is clamped
// to [0, total], empty intervals are dropped, the result is sorted by start
// and overlapping or touching intervals are merged. The output satisfies
// the preconditions Complement expects.
func Normalize(intervals []Interval, total float64) []Interval {
	if total <= 0 {
		return nil
	}

	clamped := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Start < 0 {
			iv.Start = 0
		}
		if iv.End > total {
			iv.End = total
		}
		if iv.End <= iv.Start {
			continue
		}
		clamped = append(clamped, iv)
	}
	if len(clamped) == 0 {
		return nil
	}

	sort.Slice(clamped, func(i, j int) bool {
		if clamped[i].Start == clamped[j].Start {
			return clamped[i].End < clamped[j].End
		}
		return clamped[i].Start < clamped[j].Start
	})

	merged := clamped[:1]
	for _, iv := range clamped[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Complement returns the intervals of [0, total] not covered by silences:
// the segments to keep. Silences must be normalized (ordered,
// non-overlapping, within bounds); Normalize establishes that.
//
// An empty silence list yields a single interval spanning the whole
// timeline. Silence covering the whole timeline yields no intervals.
func Complement(silences []Interval, total float64) []Interval {
	if total <= 0 {
		return nil
	}

	var keep []Interval
	last := 0.0
	for _, s := range silences {
		if s.Start > last {
			keep = append(keep, Interval{Start: last, End: s.Start})
		}
		last = s.End
	}
	if last < total {
		keep = append(keep, Interval{Start: last, End: total})
	}
	return keep
}

// Total returns the summed duration of the intervals in seconds.
func Total(intervals []Interval) float64 {
	var sum float64
	for _, iv := range intervals {
		sum += iv.Duration()
	}
	return sum
}
