package availability

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

// AvailabilitySlot is one bookable, fixed-size window. It is computed on
// demand and never stored.
type AvailabilitySlot struct {
	Date          schedule.Date  `json:"date"`
	Start         schedule.Clock `json:"start_time"`
	End           schedule.Clock `json:"end_time"`
	StartsAt      time.Time      `json:"starts_at"`
	EndsAt        time.Time      `json:"ends_at"`
	Available     bool           `json:"available"`
	BlockedReason string         `json:"blocked_reason,omitempty"`
}

// Generate cuts every open interval into consecutive slots of slotSize
// minutes starting at the interval start. Trailing time shorter than
// slotSize is dropped. The result is ordered by date then start time.
func Generate(days []DayAvailability, slotSize int) ([]AvailabilitySlot, error) {
	if slotSize <= 0 {
		return nil, &ComputationError{Op: "generate slots", Err: fmt.Errorf("slot size %d must be positive", slotSize)}
	}

	ordered := slices.Clone(days)
	slices.SortStableFunc(ordered, func(a, b DayAvailability) int { return a.Date.Compare(b.Date) })

	size := schedule.Clock(slotSize)
	slots := []AvailabilitySlot{}

	var (
		curDate schedule.Date
		cursor  schedule.Clock
	)
	for _, day := range ordered {
		if day.Date != curDate {
			curDate, cursor = day.Date, 0
		}
		loc := day.Location
		if loc == nil {
			loc = time.UTC
		}

		ivs := slices.Clone(day.Intervals)
		slices.SortFunc(ivs, func(a, b Interval) int { return cmp.Compare(a.Start, b.Start) })

		for _, iv := range ivs {
			// Intervals from Resolve are disjoint; the cursor keeps hand-built
			// input from producing overlapping slots.
			start := max(iv.Start, cursor)
			for start+size <= iv.End {
				end := start + size
				// Resolve never leaves a slot across a skipped hour, so the
				// end instant is the start plus the slot length.
				startsAt := start.On(day.Date, loc)
				slots = append(slots, AvailabilitySlot{
					Date:      day.Date,
					Start:     start,
					End:       end,
					StartsAt:  startsAt,
					EndsAt:    startsAt.Add(schedule.Minutes(slotSize)),
					Available: true,
				})
				start = end
			}
			cursor = max(cursor, iv.End)
		}
	}
	return slots, nil
}

// SlotSize picks the slot length: the service's effective block when a
// service is given, otherwise the schedule's default slot duration.
func SlotSize(s *schedule.Schedule, svc *schedule.ServiceDuration) int {
	if svc != nil {
		return svc.EffectiveBlock()
	}
	return s.SlotDuration
}
