package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/Leganyst/session-booking/internal/apperr"
)

func mustTime(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 11, 20, hour, min, 0, 0, time.UTC)
}

//
// SplitToTimeSlots
//

func TestSplitToTimeSlots_Basic(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 8, 0), End: mustTime(t, 9, 0)}

	slots, err := SplitToTimeSlots(tr, 15*time.Minute, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	if !slots[3].End.Equal(tr.End) {
		t.Fatalf("last slot must end at %v, got %v", tr.End, slots[3].End)
	}
}

func TestSplitToTimeSlots_TailDropped(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 8, 30), End: mustTime(t, 20, 45)}

	slots, err := SplitToTimeSlots(tr, 90*time.Minute, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	if !slots[7].End.Equal(mustTime(t, 20, 30)) {
		t.Fatalf("tail must be dropped, last end %v", slots[7].End)
	}
}

func TestSplitToTimeSlots_AlignMinutes(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 8, 7), End: mustTime(t, 9, 0)}

	slots, err := SplitToTimeSlots(tr, 15*time.Minute, 15)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(slots) != 3 || !slots[0].Start.Equal(mustTime(t, 8, 15)) {
		t.Fatalf("unexpected aligned slots: %v", slots)
	}
}

func TestSplitToTimeSlots_InvalidDuration(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 8, 0), End: mustTime(t, 9, 0)}
	if _, err := SplitToTimeSlots(tr, 0, 0); !errors.Is(err, ErrSlotDuration) {
		t.Fatalf("expected ErrSlotDuration, got %v", err)
	}
}

//
// HasOverlap
//

func TestHasOverlap_TouchingIsNotOverlapWhenExclusive(t *testing.T) {
	a := TimeRange{Start: mustTime(t, 8, 0), End: mustTime(t, 8, 15)}
	b := TimeRange{Start: mustTime(t, 8, 15), End: mustTime(t, 8, 30)}

	if overlap, _ := HasOverlap(b, []TimeRange{a}, false); overlap {
		t.Fatalf("touching ranges must not overlap in exclusive mode")
	}
	if overlap, _ := HasOverlap(b, []TimeRange{a}, true); !overlap {
		t.Fatalf("touching ranges must overlap in inclusive mode")
	}
}

func TestHasOverlap_ReturnsConflicts(t *testing.T) {
	existing := []TimeRange{
		{Start: mustTime(t, 8, 0), End: mustTime(t, 9, 0)},
		{Start: mustTime(t, 10, 0), End: mustTime(t, 11, 0)},
	}
	nr := TimeRange{Start: mustTime(t, 8, 30), End: mustTime(t, 10, 30)}

	overlap, conflicts := HasOverlap(nr, existing, false)
	if !overlap || len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %v", conflicts)
	}
}

//
// Метки
//

func TestGenerateLabels_Calendars(t *testing.T) {
	trial, err := GenerateLabels("08:00", "20:00", 15)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(trial) != 48 || trial[0] != "08:00-08:15" || trial[47] != "19:45-20:00" {
		t.Fatalf("unexpected free trial labels: %d %q %q", len(trial), trial[0], trial[len(trial)-1])
	}

	res, err := GenerateLabels("08:30", "20:30", 90)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res) != 8 || res[1] != "10:00-11:30" {
		t.Fatalf("unexpected reservation labels: %v", res)
	}
	if err := ValidateCatalog(res); err != nil {
		t.Fatalf("generated catalog must be valid: %v", err)
	}
}

func TestParseLabel_Invalid(t *testing.T) {
	for _, l := range []string{"", "08:00", "08:15-08:00", "8-9", "08:00-25:00"} {
		if _, _, err := ParseLabel(l); !errors.Is(err, apperr.ErrInvalidLabel) {
			t.Fatalf("label %q: expected ErrInvalidLabel, got %v", l, err)
		}
	}
}

func TestLabelRange_UsesCalendarZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	day := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	tr, err := LabelRange(day, "10:00-11:30", tokyo)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	if !tr.Start.Equal(want) || tr.End.Sub(tr.Start) != 90*time.Minute {
		t.Fatalf("unexpected range %v", tr)
	}
}

func TestValidateCatalog_Overlap(t *testing.T) {
	err := ValidateCatalog([]string{"08:00-09:00", "08:30-09:30"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormatSlotForUser_Locales(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 10, 0), End: mustTime(t, 11, 30)}

	if got := FormatSlotForUser(tr, time.UTC, "en"); got != "Thursday, 20.11.2025, 10:00-11:30" {
		t.Fatalf("unexpected en format %q", got)
	}
	if got := FormatSlotForUser(tr, time.UTC, "ja"); got != "2025年11月20日（木曜日）10:00-11:30" {
		t.Fatalf("unexpected ja format %q", got)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	if len(p.Items) != 2 || p.Items[0] != 3 || !p.HasNext || p.Total != 5 {
		t.Fatalf("unexpected page %+v", p)
	}
	last := Paginate(items, 3, 2)
	if len(last.Items) != 1 || last.HasNext {
		t.Fatalf("unexpected last page %+v", last)
	}
	all := Paginate(items, 0, 0)
	if len(all.Items) != 5 {
		t.Fatalf("pageSize 0 must return everything, got %+v", all)
	}
}
