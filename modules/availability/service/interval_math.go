package service

import (
	"sort"
	"time"

	"interview-scheduler/modules/availability/entity"
)

const halfHour = 30 * time.Minute

// SortIntervals returns a copy of list ordered by start, stable for equal starts.
func SortIntervals(list []entity.Interval) []entity.Interval {
	out := make([]entity.Interval, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// MergeIntervals folds overlapping and touching intervals into a sorted,
// disjoint list. Degenerate inputs are dropped.
func MergeIntervals(list []entity.Interval) []entity.Interval {
	sorted := SortIntervals(list)
	merged := make([]entity.Interval, 0, len(sorted))

	for _, current := range sorted {
		if current.IsEmpty() {
			continue
		}
		if len(merged) == 0 {
			merged = append(merged, current)
			continue
		}
		last := &merged[len(merged)-1]
		// touching intervals merge
		if !current.Start.After(last.End) {
			if current.End.After(last.End) {
				last.End = current.End
			}
			continue
		}
		merged = append(merged, current)
	}

	return merged
}

// SubtractIntervals removes every busy overlap from available.
func SubtractIntervals(available, busy []entity.Interval) []entity.Interval {
	busy = MergeIntervals(busy)
	result := []entity.Interval{}

	for _, a := range MergeIntervals(available) {
		cursor := a.Start
		for _, b := range busy {
			if !b.End.After(cursor) {
				continue
			}
			if !b.Start.Before(a.End) {
				break
			}
			if b.Start.After(cursor) {
				result = append(result, entity.Interval{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
			if !cursor.Before(a.End) {
				break
			}
		}
		if cursor.Before(a.End) {
			result = append(result, entity.Interval{Start: cursor, End: a.End})
		}
	}

	return result
}

// IntersectTwoLists returns the overlaps of two lists using a two-pointer sweep.
// Inputs are merged first, so the output is sorted and disjoint.
func IntersectTwoLists(a, b []entity.Interval) []entity.Interval {
	a = MergeIntervals(a)
	b = MergeIntervals(b)
	result := []entity.Interval{}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if start.Before(end) {
			result = append(result, entity.Interval{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}

	return result
}

// IntersectIntervalLists reduces lists pairwise. Any empty list yields an empty result.
func IntersectIntervalLists(lists [][]entity.Interval) []entity.Interval {
	if len(lists) == 0 {
		return []entity.Interval{}
	}
	for _, l := range lists {
		if len(l) == 0 {
			return []entity.Interval{}
		}
	}

	common := MergeIntervals(lists[0])
	for _, l := range lists[1:] {
		common = IntersectTwoLists(common, l)
		if len(common) == 0 {
			break
		}
	}
	return common
}

// SliceIntoSlots cuts each interval into back-to-back slots of durationMins.
// With align set, the first slot of each interval starts at the next :00 or :30
// boundary at or after the interval start. Trailing space shorter than a slot is discarded.
func SliceIntoSlots(intervals []entity.Interval, durationMins int, align bool) []entity.Interval {
	slots := []entity.Interval{}
	if durationMins <= 0 {
		return slots
	}
	duration := time.Duration(durationMins) * time.Minute

	for _, iv := range MergeIntervals(intervals) {
		current := iv.Start
		if align {
			current = nextHalfHour(current)
		}
		for !current.Add(duration).After(iv.End) {
			slots = append(slots, entity.Interval{Start: current, End: current.Add(duration)})
			current = current.Add(duration)
		}
	}

	return slots
}

// SliceIntoGrid cuts each interval into cells of stepMins whose starts fall on
// multiples of stepMins counted from UTC midnight. Partial cells are discarded.
func SliceIntoGrid(intervals []entity.Interval, stepMins int) []entity.Interval {
	cells := []entity.Interval{}
	if stepMins <= 0 {
		return cells
	}
	step := time.Duration(stepMins) * time.Minute

	for _, iv := range MergeIntervals(intervals) {
		for current := gridStart(iv.Start, step); !current.Add(step).After(iv.End); current = current.Add(step) {
			cells = append(cells, entity.Interval{Start: current, End: current.Add(step)})
		}
	}
	return cells
}

func gridStart(t time.Time, step time.Duration) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if rem := t.Sub(midnight) % step; rem != 0 {
		t = t.Add(step - rem)
	}
	return t
}

// ApplyBuffers shrinks each interval by beforeMins at the start and afterMins at the end.
// Negative buffers count as zero; collapsed intervals are dropped.
func ApplyBuffers(intervals []entity.Interval, beforeMins, afterMins int) []entity.Interval {
	before := time.Duration(max(beforeMins, 0)) * time.Minute
	after := time.Duration(max(afterMins, 0)) * time.Minute

	result := make([]entity.Interval, 0, len(intervals))
	for _, iv := range intervals {
		shrunk := entity.Interval{Start: iv.Start.Add(before), End: iv.End.Add(-after)}
		if shrunk.IsEmpty() {
			continue
		}
		result = append(result, shrunk)
	}
	return result
}

// FilterByMinNotice keeps slots starting at or after now + minNoticeMins.
func FilterByMinNotice(slots []entity.Interval, minNoticeMins int, now time.Time) []entity.Interval {
	earliest := now.Add(time.Duration(max(minNoticeMins, 0)) * time.Minute)
	result := make([]entity.Interval, 0, len(slots))
	for _, s := range slots {
		if !s.Start.Before(earliest) {
			result = append(result, s)
		}
	}
	return result
}

// nextHalfHour rounds t forward to an absolute :00 or :30 boundary.
func nextHalfHour(t time.Time) time.Time {
	rounded := t.Truncate(halfHour)
	if rounded.Before(t) {
		rounded = rounded.Add(halfHour)
	}
	return rounded
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
