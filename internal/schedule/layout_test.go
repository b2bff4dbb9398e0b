package schedule_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/project-mc/server/internal/schedule"
)

func at(hour, min int) int64 {
	return time.Date(2025, time.March, 10, hour, min, 0, 0, time.UTC).UnixMilli()
}

func ev(id string, startHour, startMin, endHour, endMin int) schedule.Event {
	return schedule.Event{
		ID:      id,
		Title:   "event " + id,
		StartAt: at(startHour, startMin),
		EndAt:   at(endHour, endMin),
	}
}

func TestLayoutDay_EmptyInput(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay(nil)
	if len(got) != 0 {
		t.Fatalf("got %d assignments, want 0", len(got))
	}
}

func TestLayoutDay_SingleEvent(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{ev("1", 9, 0, 10, 0)})
	want := schedule.ColumnAssignment{EventID: "1", Column: 0, ClusterColumns: 1}
	if got["1"] != want {
		t.Fatalf("got %+v, want %+v", got["1"], want)
	}
}

func TestLayoutDay_DisjointEventsFormSeparateClusters(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{
		ev("1", 9, 0, 10, 0),
		ev("2", 11, 0, 12, 0),
	})
	for _, id := range []string{"1", "2"} {
		a := got[id]
		if a.Column != 0 || a.ClusterColumns != 1 {
			t.Errorf("event %s: got col=%d/%d, want 0/1", id, a.Column, a.ClusterColumns)
		}
	}
}

func TestLayoutDay_ThreeMutualOverlaps(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{
		ev("1", 9, 0, 11, 0),
		ev("2", 9, 30, 11, 0),
		ev("3", 10, 0, 11, 0),
	})
	cols := map[int]bool{}
	for id, a := range got {
		if a.ClusterColumns != 3 {
			t.Errorf("event %s: ClusterColumns = %d, want 3", id, a.ClusterColumns)
		}
		cols[a.Column] = true
	}
	if !reflect.DeepEqual(cols, map[int]bool{0: true, 1: true, 2: true}) {
		t.Errorf("columns used = %v, want {0,1,2}", cols)
	}
}

// Chain overlap: 1 and 2 overlap, 3 overlaps only 2, yet all three form one
// cluster and 3 reuses column 0 which freed up at 10:00.
func TestLayoutDay_ChainReusesFreedColumn(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{
		ev("1", 9, 0, 10, 0),
		ev("2", 9, 30, 10, 30),
		ev("3", 10, 15, 11, 0),
	})

	want := map[string]schedule.ColumnAssignment{
		"1": {EventID: "1", Column: 0, ClusterColumns: 2},
		"2": {EventID: "2", Column: 1, ClusterColumns: 2},
		"3": {EventID: "3", Column: 0, ClusterColumns: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// An event starting exactly when another ends is not an overlap: the column
// frees at that instant and both land in separate clusters.
func TestLayoutDay_TouchingBoundary(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{
		ev("1", 9, 0, 10, 0),
		ev("2", 10, 0, 11, 0),
	})
	for _, id := range []string{"1", "2"} {
		a := got[id]
		if a.Column != 0 || a.ClusterColumns != 1 {
			t.Errorf("event %s: got col=%d/%d, want 0/1", id, a.Column, a.ClusterColumns)
		}
	}
}

func TestLayoutDay_UnsortedInput(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{
		ev("3", 10, 15, 11, 0),
		ev("1", 9, 0, 10, 0),
		ev("2", 9, 30, 10, 30),
	})
	if got["1"].Column != 0 || got["2"].Column != 1 || got["3"].Column != 0 {
		t.Fatalf("columns = %d/%d/%d, want 0/1/0",
			got["1"].Column, got["2"].Column, got["3"].Column)
	}
}

func TestLayoutDay_EqualStartsTieBreakOnID(t *testing.T) {
	t.Parallel()

	events := []schedule.Event{
		ev("b", 9, 0, 10, 0),
		ev("a", 9, 0, 10, 0),
	}
	got := schedule.LayoutDay(events)
	if got["a"].Column != 0 || got["b"].Column != 1 {
		t.Fatalf("got a=%d b=%d, want a=0 b=1", got["a"].Column, got["b"].Column)
	}

	// Deterministic regardless of input order.
	again := schedule.LayoutDay([]schedule.Event{events[1], events[0]})
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("layout not deterministic: %+v vs %+v", got, again)
	}
}

func TestLayoutDay_DegenerateRangeDoesNotPanic(t *testing.T) {
	t.Parallel()

	got := schedule.LayoutDay([]schedule.Event{
		ev("1", 10, 0, 9, 0), // end before start
		ev("2", 9, 30, 10, 30),
	})
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got))
	}
}

func TestLayoutDay_NoOverlapSharesColumn(t *testing.T) {
	t.Parallel()

	events := []schedule.Event{
		ev("1", 8, 0, 9, 30),
		ev("2", 8, 15, 8, 45),
		ev("3", 8, 30, 9, 0),
		ev("4", 8, 50, 9, 45),
		ev("5", 9, 30, 10, 0),
		ev("6", 12, 0, 13, 0),
		ev("7", 12, 30, 12, 45),
	}
	got := schedule.LayoutDay(events)

	if len(got) != len(events) {
		t.Fatalf("got %d assignments, want %d", len(got), len(events))
	}
	for i, a := range events {
		for _, b := range events[i+1:] {
			if !schedule.Overlaps(a.StartAt, a.EndAt, b.StartAt, b.EndAt) {
				continue
			}
			if got[a.ID].Column == got[b.ID].Column {
				t.Errorf("overlapping events %s and %s share column %d",
					a.ID, b.ID, got[a.ID].Column)
			}
			if got[a.ID].ClusterColumns != got[b.ID].ClusterColumns {
				t.Errorf("overlapping events %s and %s disagree on cluster width: %d vs %d",
					a.ID, b.ID, got[a.ID].ClusterColumns, got[b.ID].ClusterColumns)
			}
		}
	}
	for id, a := range got {
		if a.ClusterColumns < a.Column+1 {
			t.Errorf("event %s: cluster width %d smaller than column %d", id, a.ClusterColumns, a.Column)
		}
	}
}
