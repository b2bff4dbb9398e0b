// Package schedule computes the side-by-side column layout used by the
// day view of the calendar. It is a pure computation over already-fetched
// events and performs no I/O.
package schedule

import "sort"

// Event is a time-ranged calendar entry as consumed by the layout engine.
// EndAt is expected to be after StartAt; degenerate ranges are still laid
// out deterministically rather than rejected.
type Event struct {
	ID      string
	Title   string
	StartAt int64 // unix milliseconds
	EndAt   int64 // unix milliseconds
}

// ColumnAssignment places one event inside its overlap cluster.
// Events whose ranges overlap never share a Column; ClusterColumns is the
// total width of the cluster and is identical for every member.
type ColumnAssignment struct {
	EventID        string
	Column         int
	ClusterColumns int
}

// Overlaps reports whether two half-open ranges [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && bStart < aEnd
}

// LayoutDay assigns a column to every event using greedy first-fit reuse.
//
// Events are processed in order of start time (ties broken by ID so the
// result is reproducible). A column is reusable once its occupant has
// ended at or before the next event's start. Whenever every tracked
// column is free, the accumulated cluster is flushed: all of its members
// receive the maximum column count the cluster reached, and tracking
// resets for the next cluster.
//
// The packing is intentionally first-fit rather than an optimal interval
// coloring; columns fill left to right by start time, which is what a
// calendar grid renders.
func LayoutDay(events []Event) map[string]ColumnAssignment {
	out := make(map[string]ColumnAssignment, len(events))
	if len(events) == 0 {
		return out
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartAt != sorted[j].StartAt {
			return sorted[i].StartAt < sorted[j].StartAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	var (
		colEnds   []int64  // per tracked column, current occupied-until
		clusterID []string // members of the cluster being accumulated
		maxCols   int
	)

	flush := func() {
		for _, id := range clusterID {
			a := out[id]
			a.ClusterColumns = maxCols
			out[id] = a
		}
		colEnds = colEnds[:0]
		clusterID = clusterID[:0]
		maxCols = 0
	}

	for _, ev := range sorted {
		anyActive := false
		for _, end := range colEnds {
			if end > ev.StartAt {
				anyActive = true
				break
			}
		}
		if !anyActive && len(colEnds) > 0 {
			flush()
		}

		col := -1
		for i, end := range colEnds {
			if end <= ev.StartAt {
				col = i
				break
			}
		}
		if col == -1 {
			col = len(colEnds)
			colEnds = append(colEnds, ev.EndAt)
		} else {
			colEnds[col] = ev.EndAt
		}

		out[ev.ID] = ColumnAssignment{EventID: ev.ID, Column: col, ClusterColumns: 1}
		clusterID = append(clusterID, ev.ID)
		if len(colEnds) > maxCols {
			maxCols = len(colEnds)
		}
	}
	flush()

	return out
}
