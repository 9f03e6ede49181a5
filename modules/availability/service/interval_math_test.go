package service_test

import (
	"math/rand"
	"testing"
	"time"

	"interview-scheduler/modules/availability/availabilitytest"
	"interview-scheduler/modules/availability/entity"
	"interview-scheduler/modules/availability/service"

	"github.com/stretchr/testify/require"
)

var base = availabilitytest.At("2025-03-03T00:00:00Z") // Monday

func hm(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func iv(h1, m1, h2, m2 int) entity.Interval {
	return entity.NewInterval(hm(h1, m1), hm(h2, m2))
}

func TestMergeIntervals(t *testing.T) {
	tests := []struct {
		name string
		in   []entity.Interval
		want []entity.Interval
	}{
		{name: "empty", in: nil, want: []entity.Interval{}},
		{name: "disjoint unsorted", in: []entity.Interval{iv(11, 0, 12, 0), iv(9, 0, 10, 0)}, want: []entity.Interval{iv(9, 0, 10, 0), iv(11, 0, 12, 0)}},
		{name: "overlapping", in: []entity.Interval{iv(9, 0, 10, 30), iv(10, 0, 11, 0)}, want: []entity.Interval{iv(9, 0, 11, 0)}},
		{name: "touching merges", in: []entity.Interval{iv(9, 0, 10, 0), iv(10, 0, 11, 0)}, want: []entity.Interval{iv(9, 0, 11, 0)}},
		{name: "contained", in: []entity.Interval{iv(9, 0, 12, 0), iv(10, 0, 11, 0)}, want: []entity.Interval{iv(9, 0, 12, 0)}},
		{name: "degenerate dropped", in: []entity.Interval{iv(9, 0, 9, 0), iv(11, 0, 10, 0), iv(13, 0, 14, 0)}, want: []entity.Interval{iv(13, 0, 14, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, service.MergeIntervals(tt.in))
		})
	}
}

func TestSortIntervals_StableAndCopy(t *testing.T) {
	in := []entity.Interval{iv(10, 0, 11, 0), iv(9, 0, 12, 0), iv(9, 0, 9, 30)}
	out := service.SortIntervals(in)

	require.Equal(t, []entity.Interval{iv(9, 0, 12, 0), iv(9, 0, 9, 30), iv(10, 0, 11, 0)}, out)
	require.Equal(t, iv(10, 0, 11, 0), in[0], "input must not be reordered")
}

func TestSubtractIntervals(t *testing.T) {
	avail := []entity.Interval{iv(9, 0, 17, 0)}

	t.Run("no busy", func(t *testing.T) {
		require.Equal(t, avail, service.SubtractIntervals(avail, nil))
	})
	t.Run("middle block", func(t *testing.T) {
		got := service.SubtractIntervals(avail, []entity.Interval{iv(12, 0, 13, 0)})
		require.Equal(t, []entity.Interval{iv(9, 0, 12, 0), iv(13, 0, 17, 0)}, got)
	})
	t.Run("edges and overlapping busy", func(t *testing.T) {
		busy := []entity.Interval{iv(8, 0, 9, 30), iv(16, 30, 18, 0), iv(11, 0, 12, 0), iv(11, 30, 12, 30)}
		got := service.SubtractIntervals(avail, busy)
		require.Equal(t, []entity.Interval{iv(9, 30, 11, 0), iv(12, 30, 16, 30)}, got)
	})
	t.Run("fully covered", func(t *testing.T) {
		require.Empty(t, service.SubtractIntervals(avail, []entity.Interval{iv(8, 0, 18, 0)}))
	})
	t.Run("busy outside", func(t *testing.T) {
		got := service.SubtractIntervals(avail, []entity.Interval{iv(6, 0, 7, 0), iv(18, 0, 19, 0)})
		require.Equal(t, avail, got)
	})
}

func TestIntersectTwoLists(t *testing.T) {
	a := []entity.Interval{iv(9, 0, 12, 0), iv(13, 0, 17, 0)}
	b := []entity.Interval{iv(10, 0, 14, 0), iv(16, 0, 18, 0)}

	want := []entity.Interval{iv(10, 0, 12, 0), iv(13, 0, 14, 0), iv(16, 0, 17, 0)}
	require.Equal(t, want, service.IntersectTwoLists(a, b))
	require.Equal(t, want, service.IntersectTwoLists(b, a))

	// touching lists share no instant
	require.Empty(t, service.IntersectTwoLists([]entity.Interval{iv(9, 0, 10, 0)}, []entity.Interval{iv(10, 0, 11, 0)}))
}

func TestIntersectIntervalLists(t *testing.T) {
	lists := [][]entity.Interval{
		{iv(9, 0, 17, 0)},
		{iv(10, 0, 12, 0), iv(14, 0, 18, 0)},
		{iv(11, 0, 15, 0)},
	}
	require.Equal(t, []entity.Interval{iv(11, 0, 12, 0), iv(14, 0, 15, 0)}, service.IntersectIntervalLists(lists))

	require.Empty(t, service.IntersectIntervalLists(nil))
	require.Empty(t, service.IntersectIntervalLists([][]entity.Interval{{iv(9, 0, 10, 0)}, {}}))

	single := [][]entity.Interval{{iv(10, 0, 11, 0), iv(9, 0, 10, 0)}}
	require.Equal(t, []entity.Interval{iv(9, 0, 11, 0)}, service.IntersectIntervalLists(single))
}

func TestSliceIntoSlots(t *testing.T) {
	t.Run("exact fit", func(t *testing.T) {
		got := service.SliceIntoSlots([]entity.Interval{iv(9, 0, 10, 0)}, 30, true)
		require.Equal(t, []entity.Interval{iv(9, 0, 9, 30), iv(9, 30, 10, 0)}, got)
	})
	t.Run("trailing discarded", func(t *testing.T) {
		got := service.SliceIntoSlots([]entity.Interval{iv(9, 0, 10, 20)}, 30, false)
		require.Equal(t, []entity.Interval{iv(9, 0, 9, 30), iv(9, 30, 10, 0)}, got)
	})
	t.Run("aligned forward", func(t *testing.T) {
		got := service.SliceIntoSlots([]entity.Interval{iv(9, 10, 11, 0)}, 45, true)
		require.Equal(t, []entity.Interval{iv(9, 30, 10, 15), iv(10, 15, 11, 0)}, got)
	})
	t.Run("unaligned keeps start", func(t *testing.T) {
		got := service.SliceIntoSlots([]entity.Interval{iv(9, 10, 11, 0)}, 45, false)
		require.Equal(t, []entity.Interval{iv(9, 10, 9, 55), iv(9, 55, 10, 40)}, got)
	})
	t.Run("too short", func(t *testing.T) {
		require.Empty(t, service.SliceIntoSlots([]entity.Interval{iv(9, 0, 9, 20)}, 30, true))
	})
	t.Run("zero duration", func(t *testing.T) {
		require.Empty(t, service.SliceIntoSlots([]entity.Interval{iv(9, 0, 10, 0)}, 0, true))
	})
}

func TestSliceIntoGrid(t *testing.T) {
	t.Run("45 minute grid", func(t *testing.T) {
		got := service.SliceIntoGrid([]entity.Interval{iv(9, 10, 11, 0)}, 45)
		require.Equal(t, []entity.Interval{iv(9, 45, 10, 30)}, got)
	})
	t.Run("20 minute grid", func(t *testing.T) {
		got := service.SliceIntoGrid([]entity.Interval{iv(9, 5, 10, 0)}, 20)
		require.Equal(t, []entity.Interval{iv(9, 20, 9, 40), iv(9, 40, 10, 0)}, got)
	})
	t.Run("30 minute grid matches half-hour slots", func(t *testing.T) {
		in := []entity.Interval{iv(9, 10, 11, 0)}
		require.Equal(t, service.SliceIntoSlots(in, 30, true), service.SliceIntoGrid(in, 30))
	})
	t.Run("zero step", func(t *testing.T) {
		require.Empty(t, service.SliceIntoGrid([]entity.Interval{iv(9, 0, 10, 0)}, 0))
	})
}

func TestApplyBuffers(t *testing.T) {
	in := []entity.Interval{iv(9, 0, 10, 0), iv(11, 0, 11, 20)}

	require.Equal(t, []entity.Interval{iv(9, 10, 9, 45)}, service.ApplyBuffers(in, 10, 15))
	require.Equal(t, in, service.ApplyBuffers(in, 0, 0))
	require.Equal(t, in, service.ApplyBuffers(in, -5, -5))
}

func TestFilterByMinNotice(t *testing.T) {
	slots := []entity.Interval{iv(9, 0, 9, 30), iv(10, 0, 10, 30), iv(11, 0, 11, 30)}

	require.Equal(t, slots[1:], service.FilterByMinNotice(slots, 60, hm(9, 0)))
	require.Equal(t, slots, service.FilterByMinNotice(slots, 0, hm(9, 0)))
	require.Empty(t, service.FilterByMinNotice(slots, 24*60, hm(9, 0)))
}

func randomIntervals(r *rand.Rand, n int) []entity.Interval {
	out := make([]entity.Interval, 0, n)
	for range n {
		start := r.Intn(24 * 60)
		length := r.Intn(180) - 10 // some degenerate
		out = append(out, entity.NewInterval(
			base.Add(time.Duration(start)*time.Minute),
			base.Add(time.Duration(start+length)*time.Minute),
		))
	}
	return out
}

func totalDuration(list []entity.Interval) time.Duration {
	var d time.Duration
	for _, i := range list {
		d += i.Duration()
	}
	return d
}

func TestIntervalProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := range 200 {
		a := randomIntervals(r, r.Intn(12))
		b := randomIntervals(r, r.Intn(12))

		merged := service.MergeIntervals(a)
		require.Equal(t, merged, service.MergeIntervals(merged), "merge idempotent, case %d", i)
		for k := 1; k < len(merged); k++ {
			require.True(t, merged[k-1].End.Before(merged[k].Start), "merged output disjoint and non-touching")
		}

		diff := service.SubtractIntervals(a, b)
		for _, d := range diff {
			require.False(t, d.IsEmpty())
			for _, bb := range b {
				if bb.IsEmpty() {
					continue
				}
				require.False(t, d.Overlaps(bb), "difference overlaps busy, case %d", i)
			}
		}
		// covered time splits exactly into the difference and the overlap
		overlap := service.IntersectTwoLists(a, b)
		require.Equal(t, totalDuration(merged), totalDuration(diff)+totalDuration(overlap), "case %d", i)

		require.Equal(t, service.IntersectTwoLists(a, b), service.IntersectTwoLists(b, a), "commutative, case %d", i)

		duration := 15 + r.Intn(60)
		slots := service.SliceIntoSlots(diff, duration, r.Intn(2) == 0)
		for _, s := range slots {
			require.Equal(t, time.Duration(duration)*time.Minute, s.Duration())
			contained := false
			for _, d := range diff {
				if !s.Start.Before(d.Start) && !s.End.After(d.End) {
					contained = true
					break
				}
			}
			require.True(t, contained, "slot outside source intervals, case %d", i)
		}

		now := base.Add(time.Duration(r.Intn(24*60)) * time.Minute)
		fewer := service.FilterByMinNotice(slots, 120, now)
		more := service.FilterByMinNotice(slots, 60, now)
		require.LessOrEqual(t, len(fewer), len(more), "notice filter monotone, case %d", i)
	}
}
