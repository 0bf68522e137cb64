package appointments

import (
	"context"
	"fmt"
	"time"
)

// CapacitySource reads a clinic day's configured capacity. Satisfied by the
// capacity repository.
type CapacitySource interface {
	DayCapacity(ctx context.Context, clinicAddress, day string) (tnvr int, foster int, exists bool, err error)
}

// bookedCounter is the slice of the repository the calculator uses.
type bookedCounter interface {
	CountBooked(ctx context.Context, clinicAddress string, start, end time.Time, excludeID string) (tnvr int, foster int, err error)
}

// Availability is the remaining-slot view for one clinic day. Remaining
// counts can go negative when capacity was lowered below existing bookings
// or an admin over-booked; clients render negatives as full.
type Availability struct {
	Day             string `json:"day"`
	Scheduled       bool   `json:"scheduled"`
	TNVRCapacity    int    `json:"tnvr_capacity"`
	FosterCapacity  int    `json:"foster_capacity"`
	TNVRBooked      int    `json:"tnvr_booked"`
	FosterBooked    int    `json:"foster_booked"`
	TNVRRemaining   int    `json:"tnvr_remaining"`
	FosterRemaining int    `json:"foster_remaining"`
}

// Calculator derives per-day availability from configured capacity minus
// booked slots.
type Calculator struct {
	capacity CapacitySource
	booked   bookedCounter
	location *time.Location
	clinic   string
}

func NewCalculator(capacity CapacitySource, booked bookedCounter, clinicAddress string, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{capacity: capacity, booked: booked, clinic: clinicAddress, location: loc}
}

// ForDay computes availability for one clinic day. excludeID, when non-empty,
// leaves that appointment out of the booked counts so an edit does not count
// the slot being moved against itself.
func (c *Calculator) ForDay(ctx context.Context, day string, excludeID string) (*Availability, error) {
	start, end, err := DayWindow(day, c.location)
	if err != nil {
		return nil, err
	}

	tnvrCap, fosterCap, exists, err := c.capacity.DayCapacity(ctx, c.clinic, day)
	if err != nil {
		return nil, fmt.Errorf("appointments: day capacity: %w", err)
	}

	bookedTNVR, bookedFoster, err := c.booked.CountBooked(ctx, c.clinic, start, end, excludeID)
	if err != nil {
		return nil, err
	}

	return &Availability{
		Day:             day,
		Scheduled:       exists,
		TNVRCapacity:    tnvrCap,
		FosterCapacity:  fosterCap,
		TNVRBooked:      bookedTNVR,
		FosterBooked:    bookedFoster,
		TNVRRemaining:   tnvrCap - bookedTNVR,
		FosterRemaining: fosterCap - bookedFoster,
	}, nil
}

// ForRange computes availability for every day in [from, to] inclusive.
func (c *Calculator) ForRange(ctx context.Context, from, to string) ([]Availability, error) {
	start, err := time.ParseInLocation(DayFormat, from, c.location)
	if err != nil {
		return nil, fmt.Errorf("%w: from must be formatted YYYY-MM-DD", ErrInvalidRequest)
	}
	stop, err := time.ParseInLocation(DayFormat, to, c.location)
	if err != nil {
		return nil, fmt.Errorf("%w: to must be formatted YYYY-MM-DD", ErrInvalidRequest)
	}
	if stop.Before(start) {
		return nil, fmt.Errorf("%w: to precedes from", ErrInvalidRequest)
	}

	out := []Availability{}
	for d := start; !d.After(stop); d = d.AddDate(0, 0, 1) {
		av, err := c.ForDay(ctx, d.Format(DayFormat), "")
		if err != nil {
			return nil, err
		}
		out = append(out, *av)
	}
	return out, nil
}
