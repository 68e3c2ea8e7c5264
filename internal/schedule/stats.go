package schedule

import "math"

// Stats summarises a schedule's weekly configuration for dashboards.
type Stats struct {
	TotalWeeklyHours   float64 `json:"total_weekly_hours"`
	ActiveDaysCount    int     `json:"active_days_count"`
	TotalBreakHours    float64 `json:"total_break_hours"`
	WorkingDaysPerWeek int     `json:"working_days_per_week"`
}

// ComputeStats aggregates the active weekly rules of s. Break time is the
// union of active breaks clipped to their slot, so overlapping breaks are
// only counted once and net hours never go negative.
func ComputeStats(s *Schedule) Stats {
	var st Stats
	if s == nil {
		return st
	}

	var workMinutes, breakMinutes int
	for _, w := range s.Weekdays() {
		slot := s.Weekly[w]
		if !slot.Active {
			continue
		}
		st.ActiveDaysCount++

		window := slot.End - slot.Start
		if window <= 0 {
			continue
		}
		brk := breakUnion(slot)
		net := int(window) - brk
		workMinutes += net
		breakMinutes += brk
		if net > 0 {
			st.WorkingDaysPerWeek++
		}
	}

	st.TotalWeeklyHours = roundHours(workMinutes)
	st.TotalBreakHours = roundHours(breakMinutes)
	return st
}

// breakUnion returns the minutes covered by the active breaks of slot,
// clipped to the slot bounds.
func breakUnion(slot WeekdaySlot) int {
	total := 0
	cursor := slot.Start
	for _, b := range slot.ActiveBreaks() {
		start, end := max(b.Start, cursor), min(b.End, slot.End)
		if end > start {
			total += int(end - start)
			cursor = end
		}
	}
	return total
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
