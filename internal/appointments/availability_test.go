package appointments

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCapacity struct {
	tnvr, foster int
	exists       bool
}

func (s stubCapacity) DayCapacity(ctx context.Context, clinicAddress, day string) (int, int, bool, error) {
	return s.tnvr, s.foster, s.exists, nil
}

type stubCounter struct {
	tnvr, foster int
	excludeSeen  string
}

func (s *stubCounter) CountBooked(ctx context.Context, clinicAddress string, start, end time.Time, excludeID string) (int, int, error) {
	s.excludeSeen = excludeID
	return s.tnvr, s.foster, nil
}

func TestAvailabilitySubtractsBookedFromCapacity(t *testing.T) {
	calc := NewCalculator(stubCapacity{tnvr: 10, foster: 4, exists: true},
		&stubCounter{tnvr: 7, foster: 1}, testClinic, time.UTC)

	av, err := calc.ForDay(context.Background(), "2026-09-01", "")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if av.TNVRRemaining != 3 || av.FosterRemaining != 3 {
		t.Fatalf("unexpected remaining: %+v", av)
	}
	if !av.Scheduled {
		t.Fatal("expected day to be scheduled")
	}
}

func TestAvailabilityUnscheduledDayIsZeroCapacity(t *testing.T) {
	calc := NewCalculator(stubCapacity{}, &stubCounter{}, testClinic, time.UTC)

	av, err := calc.ForDay(context.Background(), "2026-09-01", "")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if av.Scheduled {
		t.Fatal("expected unscheduled day")
	}
	if av.TNVRRemaining != 0 || av.FosterRemaining != 0 {
		t.Fatalf("unexpected remaining: %+v", av)
	}
}

func TestAvailabilityCanGoNegativeAfterOverbook(t *testing.T) {
	calc := NewCalculator(stubCapacity{tnvr: 2, exists: true},
		&stubCounter{tnvr: 5}, testClinic, time.UTC)

	av, err := calc.ForDay(context.Background(), "2026-09-01", "")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if av.TNVRRemaining != -3 {
		t.Fatalf("expected -3 remaining, got %d", av.TNVRRemaining)
	}
}

func TestAvailabilityPassesExcludeForEditMode(t *testing.T) {
	counter := &stubCounter{}
	calc := NewCalculator(stubCapacity{exists: true}, counter, testClinic, time.UTC)

	if _, err := calc.ForDay(context.Background(), "2026-09-01", "appt-9"); err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if counter.excludeSeen != "appt-9" {
		t.Fatalf("exclude id not forwarded, got %q", counter.excludeSeen)
	}
}

func TestAvailabilityRejectsMalformedDate(t *testing.T) {
	calc := NewCalculator(stubCapacity{}, &stubCounter{}, testClinic, time.UTC)

	_, err := calc.ForDay(context.Background(), "09/01/2026", "")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAvailabilityRangeInclusive(t *testing.T) {
	calc := NewCalculator(stubCapacity{tnvr: 1, exists: true}, &stubCounter{}, testClinic, time.UTC)

	out, err := calc.ForRange(context.Background(), "2026-09-01", "2026-09-03")
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 days, got %d", len(out))
	}
	if out[0].Day != "2026-09-01" || out[2].Day != "2026-09-03" {
		t.Fatalf("unexpected range bounds: %+v", out)
	}

	if _, err := calc.ForRange(context.Background(), "2026-09-03", "2026-09-01"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for inverted range, got %v", err)
	}
}

func TestDayWindowUsesClinicTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	start, end, err := DayWindow("2026-09-01", loc)
	if err != nil {
		t.Fatalf("day window: %v", err)
	}
	if got := start.UTC(); got != time.Date(2026, 9, 1, 4, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected start: %v", got)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("unexpected window length: %v", end.Sub(start))
	}
}

func TestDayWindowEndsAtNextMidnightAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Spring forward: 2026-03-08 is only 23 hours long. The window must still
	// end at the next calendar midnight, not spill into 2026-03-09.
	start, end, err := DayWindow("2026-03-08", loc)
	if err != nil {
		t.Fatalf("day window: %v", err)
	}
	if end.Sub(start) != 23*time.Hour {
		t.Fatalf("expected 23h spring-forward day, got %v", end.Sub(start))
	}
	nextMidnight := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	if !end.Equal(nextMidnight) {
		t.Fatalf("window end %v, want %v", end, nextMidnight)
	}
	if nextMidnight.Before(end) {
		t.Fatal("next day's midnight must not fall inside the window")
	}

	// Fall back: 2026-11-01 is 25 hours long and must be covered in full.
	start, end, err = DayWindow("2026-11-01", loc)
	if err != nil {
		t.Fatalf("day window: %v", err)
	}
	if end.Sub(start) != 25*time.Hour {
		t.Fatalf("expected 25h fall-back day, got %v", end.Sub(start))
	}
}
