package charging

import (
	"fmt"
	"time"

	"evstation/internal"
	"evstation/types"
)

const (
	dailyRecurrence  = 24 * time.Hour
	weeklyRecurrence = 7 * 24 * time.Hour
)

// Calculator derives composite charging schedules from installed profiles.
// All time arithmetic is done at whole-second precision.
type Calculator struct {
	scopes ScopeRegistry
	log    internal.LogHandler
}

func NewCalculator(scopes ScopeRegistry) *Calculator {
	return &Calculator{scopes: scopes}
}

func (c *Calculator) SetLogger(log internal.LogHandler) {
	c.log = log
}

func (c *Calculator) warn(text string) {
	if c.log != nil {
		c.log.Warn(text)
	}
}

// ProfileStartTime resolves the absolute instant the schedule's period
// offsets are measured from. For Recurring profiles that is the most recent
// recurrence boundary at or before the reference instant. The second return
// is false when no anchor can be derived; callers treat such a profile as
// inactive rather than failing the whole calculation.
func (c *Calculator) ProfileStartTime(profile *types.ChargingProfile, schedule *types.ChargingSchedule, reference time.Time, scopeID int) (time.Time, bool) {
	switch profile.ChargingProfileKind {
	case types.ChargingProfileKindAbsolute:
		if schedule.StartSchedule == nil {
			c.warn(fmt.Sprintf("profile %d: absolute kind without start schedule", profile.ChargingProfileId))
			return time.Time{}, false
		}
		return schedule.StartSchedule.Time.Truncate(time.Second), true
	case types.ChargingProfileKindRecurring:
		if schedule.StartSchedule == nil {
			c.warn(fmt.Sprintf("profile %d: recurring kind without start schedule", profile.ChargingProfileId))
			return time.Time{}, false
		}
		period := recurrencePeriod(profile)
		start := schedule.StartSchedule.Time.Truncate(time.Second)
		ref := reference.Truncate(time.Second)
		offset := ref.Sub(start) % period
		if offset < 0 {
			offset += period
		}
		return ref.Add(-offset), true
	case types.ChargingProfileKindRelative:
		if c.scopes != nil {
			if scope, ok := c.scopes.Scope(scopeID); ok {
				if transaction := scope.ActiveTransaction(); transaction != nil {
					return transaction.TimeStart.Truncate(time.Second), true
				}
			}
		}
		c.warn(fmt.Sprintf("profile %d: relative kind without an active transaction on scope %d", profile.ChargingProfileId, scopeID))
		return time.Time{}, false
	}
	return time.Time{}, false
}

func recurrencePeriod(profile *types.ChargingProfile) time.Duration {
	if profile.RecurrencyKind == types.RecurrencyKindWeekly {
		return weeklyRecurrence
	}
	return dailyRecurrence
}

// CompositeSchedule merges the given profiles over [start, end) into a
// single sequence of periods. Per purpose the active profile at an instant
// is the one with the lowest limit, ties broken by higher stack level; the
// effective limit is the session purpose (Tx, falling back to TxDefault)
// capped by the station maximum. Instants where no profile constrains the
// scope produce no period.
func (c *Calculator) CompositeSchedule(profiles []*types.ChargingProfile, start, end time.Time, scopeID int, unit types.ChargingRateUnitType) *types.CompositeSchedule {
	start = start.Truncate(time.Second)
	end = end.Truncate(time.Second)
	composite := &types.CompositeSchedule{
		ConnectorId:            scopeID,
		ScheduleStart:          types.NewDateTime(start),
		ChargingRateUnit:       unit,
		ChargingSchedulePeriod: []types.ChargingSchedulePeriod{},
	}
	if !end.After(start) {
		return composite
	}
	composite.Duration = int(end.Sub(start) / time.Second)

	cursor := start
	var lastLimit *float64
	// Each iteration advances the cursor to a strictly later boundary, so
	// the loop is bounded by the number of distinct edges in the window.
	for cursor.Before(end) {
		limit, phases, constrained := c.effectiveLimit(profiles, cursor, scopeID)
		if constrained && (lastLimit == nil || *lastLimit != limit) {
			composite.ChargingSchedulePeriod = append(composite.ChargingSchedulePeriod, types.ChargingSchedulePeriod{
				StartPeriod:  int(cursor.Sub(start) / time.Second),
				Limit:        limit,
				NumberPhases: phases,
			})
		}
		if constrained {
			value := limit
			lastLimit = &value
		} else {
			lastLimit = nil
		}
		boundary := c.nextBoundary(profiles, cursor, scopeID, end)
		if !boundary.After(cursor) {
			break
		}
		cursor = boundary
	}
	return composite
}

type activeLimit struct {
	limit        float64
	stackLevel   int
	numberPhases *int
	ok           bool
}

func (c *Calculator) effectiveLimit(profiles []*types.ChargingProfile, at time.Time, scopeID int) (float64, *int, bool) {
	stationMax := c.purposeLimit(profiles, types.ChargingProfilePurposeChargePointMaxProfile, at, scopeID)
	session := c.purposeLimit(profiles, types.ChargingProfilePurposeTxProfile, at, scopeID)
	if !session.ok {
		session = c.purposeLimit(profiles, types.ChargingProfilePurposeTxDefaultProfile, at, scopeID)
	}
	switch {
	case session.ok && stationMax.ok:
		if stationMax.limit < session.limit {
			return stationMax.limit, stationMax.numberPhases, true
		}
		return session.limit, session.numberPhases, true
	case session.ok:
		return session.limit, session.numberPhases, true
	case stationMax.ok:
		return stationMax.limit, stationMax.numberPhases, true
	}
	return 0, nil, false
}

func (c *Calculator) purposeLimit(profiles []*types.ChargingProfile, purpose types.ChargingProfilePurposeType, at time.Time, scopeID int) activeLimit {
	best := activeLimit{}
	for _, profile := range profiles {
		if profile.ChargingProfilePurpose != purpose {
			continue
		}
		if !profileValidAt(profile, at) {
			continue
		}
		for _, schedule := range profile.Schedules() {
			anchor, ok := c.ProfileStartTime(profile, schedule, at, scopeID)
			if !ok {
				continue
			}
			period := periodAt(schedule, anchor, at)
			if period == nil {
				continue
			}
			if !best.ok || period.Limit < best.limit ||
				(period.Limit == best.limit && profile.StackLevel > best.stackLevel) {
				best = activeLimit{
					limit:        period.Limit,
					stackLevel:   profile.StackLevel,
					numberPhases: period.NumberPhases,
					ok:           true,
				}
			}
		}
	}
	return best
}

func profileValidAt(profile *types.ChargingProfile, at time.Time) bool {
	if profile.ValidFrom != nil && at.Before(profile.ValidFrom.Time.Truncate(time.Second)) {
		return false
	}
	if profile.ValidTo != nil && !at.Before(profile.ValidTo.Time.Truncate(time.Second)) {
		return false
	}
	return true
}

// periodAt picks the schedule period covering the given instant, or nil
// when the instant lies before the anchor or past the schedule's duration.
func periodAt(schedule *types.ChargingSchedule, anchor, at time.Time) *types.ChargingSchedulePeriod {
	if at.Before(anchor) {
		return nil
	}
	if schedule.Duration != nil {
		scheduleEnd := anchor.Add(time.Duration(*schedule.Duration) * time.Second)
		if !at.Before(scheduleEnd) {
			return nil
		}
	}
	periods := schedule.ChargingSchedulePeriod
	var current *types.ChargingSchedulePeriod
	for i := range periods {
		periodStart := anchor.Add(time.Duration(periods[i].StartPeriod) * time.Second)
		if periodStart.After(at) {
			break
		}
		current = &periods[i]
	}
	return current
}

// nextBoundary finds the earliest instant after the cursor where any
// profile's contribution may change, capped at the window end.
func (c *Calculator) nextBoundary(profiles []*types.ChargingProfile, after time.Time, scopeID int, windowEnd time.Time) time.Time {
	next := windowEnd
	consider := func(t time.Time) {
		if t.After(after) && t.Before(next) {
			next = t
		}
	}
	for _, profile := range profiles {
		if profile.ValidFrom != nil {
			consider(profile.ValidFrom.Time.Truncate(time.Second))
		}
		if profile.ValidTo != nil {
			consider(profile.ValidTo.Time.Truncate(time.Second))
		}
		for _, schedule := range profile.Schedules() {
			anchor, ok := c.ProfileStartTime(profile, schedule, after, scopeID)
			if !ok {
				continue
			}
			consider(anchor)
			for _, period := range schedule.ChargingSchedulePeriod {
				consider(anchor.Add(time.Duration(period.StartPeriod) * time.Second))
			}
			if schedule.Duration != nil {
				consider(anchor.Add(time.Duration(*schedule.Duration) * time.Second))
			}
			if profile.ChargingProfileKind == types.ChargingProfileKindRecurring {
				consider(anchor.Add(recurrencePeriod(profile)))
			}
		}
	}
	return next
}
