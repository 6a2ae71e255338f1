// Package enrollment decides which milestone of a multi-stage care schedule
// an entity belongs in and drives the close-then-open alert transition that
// keeps exactly one alert active per (entity, provider, schedule) key.
package enrollment

import "time"

const day = 24 * time.Hour

// Stage is one milestone window within a schedule. A reference date matches
// the stage when it lies strictly less than Within before the evaluation
// instant.
type Stage struct {
	Milestone    string
	Within       time.Duration
	NominalHours int
}

// Schedule is an ordered cascade of stage windows. Order is significant: the
// first matching window wins, so reordering stages changes behavior.
type Schedule struct {
	Name   string
	Stages []Stage
}

// ScheduleANC is the antenatal care program name.
const ScheduleANC = "ANC"

// ANCSchedule builds the four-stage antenatal cascade. Windows are measured
// back from the evaluation instant: 24 weeks minus 5 days for ANC 1, then
// 32 weeks minus 5 days, 36 weeks minus 5 days and a full 36 weeks.
func ANCSchedule(anc1, anc2, anc3, anc4 int) Schedule {
	return Schedule{
		Name: ScheduleANC,
		Stages: []Stage{
			{Milestone: "ANC 1", Within: (24*7 - 5) * day, NominalHours: anc1},
			{Milestone: "ANC 2", Within: (32*7 - 5) * day, NominalHours: anc2},
			{Milestone: "ANC 3", Within: (36*7 - 5) * day, NominalHours: anc3},
			{Milestone: "ANC 4", Within: 36 * 7 * day, NominalHours: anc4},
		},
	}
}

// Resolve maps a reference date to the first stage whose window contains it,
// evaluated against the supplied instant. Returns ok=false when the reference
// date is outside every window; callers treat that as "not currently due for
// any stage", not as an error. Pure: identical inputs always give identical
// results.
func (s Schedule) Resolve(referenceDate, now time.Time) (Stage, bool) {
	for _, stage := range s.Stages {
		if withinPeriodBefore(referenceDate, now, stage.Within) {
			return stage, true
		}
	}
	return Stage{}, false
}

// withinPeriodBefore reports whether ref lies in (now - period, now]: the
// reference date is strictly less than period before the evaluation instant
// and not in the future.
func withinPeriodBefore(ref, now time.Time, period time.Duration) bool {
	return ref.After(now.Add(-period)) && !ref.After(now)
}
