package charging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evstation/models"
	"evstation/types"
)

func scheduleProfile(id, stackLevel int, purpose types.ChargingProfilePurposeType, start string, periods ...types.ChargingSchedulePeriod) *types.ChargingProfile {
	profile := &types.ChargingProfile{
		ChargingProfileId:      id,
		StackLevel:             stackLevel,
		ChargingProfilePurpose: purpose,
		ChargingProfileKind:    types.ChargingProfileKindAbsolute,
		ChargingSchedule: &types.ChargingSchedule{
			ChargingRateUnit:       types.ChargingRateUnitAmperes,
			ChargingSchedulePeriod: periods,
		},
	}
	if start != "" {
		profile.ChargingSchedule.StartSchedule = dateTime(start)
	}
	return profile
}

func TestProfileStartTimeAbsolute(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00.52Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})

	anchor, ok := calculator.ProfileStartTime(profile, profile.ChargingSchedule, time.Now(), 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC), anchor)
}

func TestProfileStartTimeAbsoluteMissingStartSchedule(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})

	_, ok := calculator.ProfileStartTime(profile, profile.ChargingSchedule, time.Now(), 1)
	assert.False(t, ok)
}

func TestProfileStartTimeRecurringDaily(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T08:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})
	profile.ChargingProfileKind = types.ChargingProfileKindRecurring
	profile.RecurrencyKind = types.RecurrencyKindDaily

	reference := time.Date(2024, 1, 20, 14, 30, 0, 0, time.UTC)
	anchor, ok := calculator.ProfileStartTime(profile, profile.ChargingSchedule, reference, 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC), anchor)

	// A reference earlier in the day rolls back to the previous occurrence.
	reference = time.Date(2024, 1, 20, 7, 0, 0, 0, time.UTC)
	anchor, ok = calculator.ProfileStartTime(profile, profile.ChargingSchedule, reference, 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 19, 8, 0, 0, 0, time.UTC), anchor)

	// So does a reference before the very first occurrence.
	reference = time.Date(2024, 1, 17, 7, 0, 0, 0, time.UTC)
	anchor, ok = calculator.ProfileStartTime(profile, profile.ChargingSchedule, reference, 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC), anchor)
}

func TestProfileStartTimeRecurringWeekly(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T08:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})
	profile.ChargingProfileKind = types.ChargingProfileKindRecurring
	profile.RecurrencyKind = types.RecurrencyKindWeekly

	reference := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	anchor, ok := calculator.ProfileStartTime(profile, profile.ChargingSchedule, reference, 1)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC), anchor)
}

func TestProfileStartTimeRelative(t *testing.T) {
	registry := testRegistry()
	calculator := NewCalculator(registry)
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxProfile,
		"", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})
	profile.ChargingProfileKind = types.ChargingProfileKindRelative

	_, ok := calculator.ProfileStartTime(profile, profile.ChargingSchedule, time.Now(), 1)
	assert.False(t, ok)

	sessionStart := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	registry.SetTransaction(1, &models.Transaction{Id: 100, ConnectorId: 1, TimeStart: sessionStart})

	anchor, ok := calculator.ProfileStartTime(profile, profile.ChargingSchedule, time.Now(), 1)
	require.True(t, ok)
	assert.Equal(t, sessionStart, anchor)
}

func TestCompositeScheduleEmptyWindow(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	at := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)

	composite := calculator.CompositeSchedule(nil, at, at, 1, types.ChargingRateUnitAmperes)
	assert.Equal(t, 0, composite.Duration)
	assert.Empty(t, composite.ChargingSchedulePeriod)
}

func TestCompositeScheduleProfileOutsideWindow(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-18T00:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})

	start := time.Date(2024, 1, 17, 17, 59, 59, 0, time.UTC)
	end := time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{profile}, start, end, 1, types.ChargingRateUnitAmperes)

	assert.Equal(t, 21601, composite.Duration)
	assert.Empty(t, composite.ChargingSchedulePeriod)
}

func TestCompositeScheduleSingleProfile(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z",
		types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16},
		types.ChargingSchedulePeriod{StartPeriod: 3600, Limit: 10},
		types.ChargingSchedulePeriod{StartPeriod: 7200, Limit: 6},
	)

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{profile}, start, start.Add(3*time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 3)
	assert.Equal(t, 0, composite.ChargingSchedulePeriod[0].StartPeriod)
	assert.Equal(t, 16.0, composite.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 3600, composite.ChargingSchedulePeriod[1].StartPeriod)
	assert.Equal(t, 10.0, composite.ChargingSchedulePeriod[1].Limit)
	assert.Equal(t, 7200, composite.ChargingSchedulePeriod[2].StartPeriod)
	assert.Equal(t, 6.0, composite.ChargingSchedulePeriod[2].Limit)
	assert.Equal(t, 10800, composite.Duration)
}

func TestCompositeScheduleWindowStartsMidProfile(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z",
		types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16},
		types.ChargingSchedulePeriod{StartPeriod: 3600, Limit: 10},
		types.ChargingSchedulePeriod{StartPeriod: 7200, Limit: 6},
	)

	// Period offsets in the result are relative to the window start,
	// not to the profile's own start schedule.
	start := time.Date(2024, 1, 17, 19, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{profile}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 2)
	assert.Equal(t, 0, composite.ChargingSchedulePeriod[0].StartPeriod)
	assert.Equal(t, 10.0, composite.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 3600, composite.ChargingSchedulePeriod[1].StartPeriod)
	assert.Equal(t, 6.0, composite.ChargingSchedulePeriod[1].Limit)
}

func TestCompositeScheduleStationMaxCapsSession(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	stationMax := scheduleProfile(1, 0, types.ChargingProfilePurposeChargePointMaxProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 20})
	txDefault := scheduleProfile(2, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z",
		types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 32},
		types.ChargingSchedulePeriod{StartPeriod: 3600, Limit: 10},
	)

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{stationMax, txDefault}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 2)
	assert.Equal(t, 20.0, composite.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 3600, composite.ChargingSchedulePeriod[1].StartPeriod)
	assert.Equal(t, 10.0, composite.ChargingSchedulePeriod[1].Limit)
}

func TestCompositeScheduleTxOverridesTxDefault(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	txDefault := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})
	tx := scheduleProfile(2, 1, types.ChargingProfilePurposeTxProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 8})
	tx.ChargingSchedule.Duration = intPtr(3600)

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{txDefault, tx}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	// The session profile wins while it runs, then the default takes over.
	require.Len(t, composite.ChargingSchedulePeriod, 2)
	assert.Equal(t, 8.0, composite.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 3600, composite.ChargingSchedulePeriod[1].StartPeriod)
	assert.Equal(t, 16.0, composite.ChargingSchedulePeriod[1].Limit)
}

func TestCompositeScheduleLowestLimitWins(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	low := scheduleProfile(1, 2, types.ChargingProfilePurposeChargePointMaxProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 10})
	high := scheduleProfile(2, 9, types.ChargingProfilePurposeChargePointMaxProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{high, low}, start, start.Add(time.Hour), 0, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 1)
	assert.Equal(t, 10.0, composite.ChargingSchedulePeriod[0].Limit)
}

func TestCompositeScheduleTieBreakOnStackLevel(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	lowStack := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16, NumberPhases: intPtr(1)})
	highStack := scheduleProfile(2, 5, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16, NumberPhases: intPtr(3)})

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{lowStack, highStack}, start, start.Add(time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 1)
	require.NotNil(t, composite.ChargingSchedulePeriod[0].NumberPhases)
	assert.Equal(t, 3, *composite.ChargingSchedulePeriod[0].NumberPhases)
}

func TestCompositeScheduleCoalescesEqualLimits(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	first := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})
	first.ChargingSchedule.Duration = intPtr(3600)
	second := scheduleProfile(2, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T19:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16})

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{first, second}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	// The handover at 19:00 keeps the same limit, so no new period starts.
	require.Len(t, composite.ChargingSchedulePeriod, 1)
	assert.Equal(t, 0, composite.ChargingSchedulePeriod[0].StartPeriod)
	assert.Equal(t, 16.0, composite.ChargingSchedulePeriod[0].Limit)
}

func TestCompositeScheduleRecurringDaily(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T08:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 6})
	profile.ChargingProfileKind = types.ChargingProfileKindRecurring
	profile.RecurrencyKind = types.RecurrencyKindDaily
	profile.ChargingSchedule.Duration = intPtr(3600)

	// The next day's occurrence becomes active inside the window.
	start := time.Date(2024, 1, 18, 7, 30, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{profile}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 1)
	assert.Equal(t, 1800, composite.ChargingSchedulePeriod[0].StartPeriod)
	assert.Equal(t, 6.0, composite.ChargingSchedulePeriod[0].Limit)
}

func TestCompositeScheduleValidityWindow(t *testing.T) {
	calculator := NewCalculator(testRegistry())
	stationMax := scheduleProfile(1, 0, types.ChargingProfilePurposeChargePointMaxProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 20})
	txDefault := scheduleProfile(2, 1, types.ChargingProfilePurposeTxDefaultProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 10})
	txDefault.ValidTo = dateTime("2024-01-17T19:00:00Z")

	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{stationMax, txDefault}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 2)
	assert.Equal(t, 10.0, composite.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 3600, composite.ChargingSchedulePeriod[1].StartPeriod)
	assert.Equal(t, 20.0, composite.ChargingSchedulePeriod[1].Limit)
}

func TestCompositeScheduleSkipsProfileWithoutAnchor(t *testing.T) {
	registry := testRegistry()
	calculator := NewCalculator(registry)

	relative := scheduleProfile(1, 5, types.ChargingProfilePurposeTxProfile,
		"", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 8})
	relative.ChargingProfileKind = types.ChargingProfileKindRelative
	stationMax := scheduleProfile(2, 0, types.ChargingProfilePurposeChargePointMaxProfile,
		"2024-01-17T18:00:00Z", types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 20})

	// No active transaction, so the relative profile contributes nothing.
	start := time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{relative, stationMax}, start, start.Add(time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 1)
	assert.Equal(t, 20.0, composite.ChargingSchedulePeriod[0].Limit)
}

func TestCompositeScheduleRelativeUsesTransactionStart(t *testing.T) {
	registry := testRegistry()
	calculator := NewCalculator(registry)
	registry.SetTransaction(1, &models.Transaction{
		Id: 100, ConnectorId: 1,
		TimeStart: time.Date(2024, 1, 17, 18, 0, 0, 0, time.UTC),
	})

	profile := scheduleProfile(1, 1, types.ChargingProfilePurposeTxProfile,
		"",
		types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16},
		types.ChargingSchedulePeriod{StartPeriod: 3600, Limit: 8},
	)
	profile.ChargingProfileKind = types.ChargingProfileKindRelative
	profile.ChargingSchedule.Duration = intPtr(7200)

	start := time.Date(2024, 1, 17, 18, 30, 0, 0, time.UTC)
	composite := calculator.CompositeSchedule([]*types.ChargingProfile{profile}, start, start.Add(2*time.Hour), 1, types.ChargingRateUnitAmperes)

	require.Len(t, composite.ChargingSchedulePeriod, 2)
	assert.Equal(t, 0, composite.ChargingSchedulePeriod[0].StartPeriod)
	assert.Equal(t, 16.0, composite.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 1800, composite.ChargingSchedulePeriod[1].StartPeriod)
	assert.Equal(t, 8.0, composite.ChargingSchedulePeriod[1].Limit)
}
