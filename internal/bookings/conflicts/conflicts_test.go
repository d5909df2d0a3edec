package conflicts

import (
	"context"
	"errors"
	"testing"
	"tourdesk/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2025-09-20"

func booking(id, resourceID, start, end string, status model.BookingStatus, crew ...string) *model.Booking {
	b := &model.Booking{
		ID:       id,
		Resource: model.ResourceRef{ID: resourceID, Kind: model.KindBoat},
		Window:   model.TimeWindow{Date: day, Start: start, End: end},
		Status:   status,
	}
	for _, c := range crew {
		b.Crew = append(b.Crew, model.CrewRef{ID: c})
	}
	return b
}

func TestDetect_ResourceOverlap(t *testing.T) {
	x := booking("X", "R1", "10:00", "12:00", model.StatusConfirmed)

	tests := []struct {
		name      string
		start     string
		end       string
		wantCount int
	}{
		{"overlapping tail", "11:00", "13:00", 1},
		{"contained", "10:30", "11:30", 1},
		{"covering", "09:00", "13:00", 1},
		{"adjacent after", "12:00", "14:00", 0},
		{"adjacent before", "08:00", "10:00", 0},
		{"disjoint", "14:00", "15:00", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := booking("new", "R1", tt.start, tt.end, model.StatusPending)
			got := Detect(candidate, []*model.Booking{x}, nil, nil, "")
			require.Len(t, got, tt.wantCount)
			if tt.wantCount == 1 {
				assert.Equal(t, model.ConflictResourceOverlap, got[0].Type)
				assert.Equal(t, "X", got[0].BookingID)
				assert.Equal(t, "R1", got[0].ResourceID)
			}
		})
	}
}

func TestDetect_IgnoresCancelledAndExcluded(t *testing.T) {
	cancelled := booking("X", "R1", "10:00", "12:00", model.StatusCancelled)
	self := booking("Y", "R1", "10:00", "12:00", model.StatusConfirmed)

	candidate := booking("Y", "R1", "11:00", "13:00", model.StatusConfirmed)
	got := Detect(candidate, []*model.Booking{cancelled, self}, nil, nil, "Y")
	assert.Empty(t, got)
}

func TestDetect_CompletedStillBlocks(t *testing.T) {
	done := booking("X", "R1", "10:00", "12:00", model.StatusCompleted)
	candidate := booking("new", "R1", "11:00", "12:00", model.StatusPending)
	got := Detect(candidate, []*model.Booking{done}, nil, nil, "")
	assert.Len(t, got, 1)
}

func TestDetect_CrewOverlapAcrossResources(t *testing.T) {
	onBoat := booking("B1", "R1", "10:00", "12:00", model.StatusConfirmed, "C1")
	candidate := booking("new", "R2", "11:00", "13:00", model.StatusPending, "C1", "C2")

	got := Detect(candidate, nil, map[string][]*model.Booking{"C1": {onBoat}}, nil, "")
	require.Len(t, got, 1)
	assert.Equal(t, model.ConflictCrewOverlap, got[0].Type)
	assert.Equal(t, "C1", got[0].CrewID)
	assert.Equal(t, "B1", got[0].BookingID)
}

func TestDetect_CollectsAllConflicts(t *testing.T) {
	a := booking("A", "R1", "09:00", "11:00", model.StatusConfirmed, "C1")
	b := booking("B", "R1", "11:00", "12:00", model.StatusPending, "C2")
	elsewhere := booking("E", "R9", "10:30", "11:30", model.StatusConfirmed, "C2")
	maintenance := []model.CalendarEntry{
		{Window: model.TimeWindow{Date: day, Start: "11:30", End: "13:00"}, Reason: model.ReasonMaintenance, Note: "engine"},
		{Window: model.TimeWindow{Date: day, Start: "09:00", End: "11:00"}, Reason: model.ReasonBooked, BookingID: "A"},
	}

	candidate := booking("new", "R1", "10:00", "12:00", model.StatusPending, "C1", "C2")
	got := Detect(candidate,
		[]*model.Booking{b, a},
		map[string][]*model.Booking{"C1": {a}, "C2": {b, elsewhere}},
		maintenance,
		"",
	)

	types := map[model.ConflictType]int{}
	for _, c := range got {
		types[c.Type]++
	}
	assert.Equal(t, 2, types[model.ConflictResourceOverlap])
	assert.Equal(t, 3, types[model.ConflictCrewOverlap])
	assert.Equal(t, 1, types[model.ConflictMaintenanceOverlap])

	// resource conflicts are reported in window order
	assert.Equal(t, "A", got[0].BookingID)
	assert.Equal(t, "B", got[1].BookingID)
}

type fakeSource struct {
	byResource map[string][]*model.Booking
	byCrew     map[string][]*model.Booking
	day        *model.CalendarDay
	err        error
}

func (f *fakeSource) FindActiveByResourceDate(ctx context.Context, resourceID, date string) ([]*model.Booking, error) {
	return f.byResource[resourceID], f.err
}

func (f *fakeSource) FindActiveByCrewDate(ctx context.Context, crewID, date string) ([]*model.Booking, error) {
	return f.byCrew[crewID], f.err
}

func (f *fakeSource) FindDay(ctx context.Context, resourceID, date string) (*model.CalendarDay, error) {
	return f.day, nil
}

func TestChecker_CheckConflicts(t *testing.T) {
	x := booking("X", "R1", "10:00", "12:00", model.StatusConfirmed, "C1")
	src := &fakeSource{
		byResource: map[string][]*model.Booking{"R1": {x}},
		byCrew:     map[string][]*model.Booking{"C1": {x}},
		day: &model.CalendarDay{Entries: []model.CalendarEntry{
			{Window: model.TimeWindow{Date: day, Start: "12:00", End: "14:00"}, Reason: model.ReasonMaintenance},
		}},
	}
	checker := NewChecker(src, src)

	got, err := checker.CheckConflicts(context.Background(), booking("new", "R1", "11:00", "13:00", model.StatusPending, "C1"), "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = checker.CheckConflicts(context.Background(), booking("X", "R1", "11:00", "12:00", model.StatusConfirmed, "C1"), "X")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChecker_PropagatesStoreErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("store down")}
	checker := NewChecker(src, nil)

	_, err := checker.CheckConflicts(context.Background(), booking("new", "R1", "11:00", "13:00", model.StatusPending), "")
	assert.Error(t, err)
}
