package charging

import (
	"evstation/models"
	"evstation/types"
)

const defaultNumberPhases = 3

// Limits carries the station's admission settings for incoming profiles.
type Limits struct {
	MaxStackLevel        int
	MaxProfiles          int
	MaxSchedulePeriods   int
	AllowedRateUnits     []types.ChargingRateUnitType
	AllowNoStartSchedule bool
	IgnoreNoTransaction  bool
}

func DefaultLimits() Limits {
	return Limits{
		MaxStackLevel:      10,
		MaxProfiles:        20,
		MaxSchedulePeriods: 10,
		AllowedRateUnits: []types.ChargingRateUnitType{
			types.ChargingRateUnitAmperes,
			types.ChargingRateUnitWatts,
		},
		IgnoreNoTransaction: true,
	}
}

// Validator decides whether an incoming charging profile may be installed.
type Validator struct {
	scopes ScopeRegistry
	store  *ProfileStore
	limits Limits
}

func NewValidator(scopes ScopeRegistry, store *ProfileStore, limits Limits) *Validator {
	return &Validator{
		scopes: scopes,
		store:  store,
		limits: limits,
	}
}

// ValidateEvseExists checks that the scope identifier is known to the station.
func (v *Validator) ValidateEvseExists(scopeID int) ValidationResult {
	if _, ok := v.scopes.Scope(scopeID); !ok {
		return EvseDoesNotExist
	}
	return Valid
}

// ValidateTxDefaultProfile rejects a TxDefault profile whose stack level is
// already taken by a different TxDefault profile on the same scope. The
// comparison set for scope id 0 is the station-wide bucket, otherwise the
// target scope's own bucket. Same id and same stack level is a replacement,
// not a duplicate.
func (v *Validator) ValidateTxDefaultProfile(profile *types.ChargingProfile, scopeID int) ValidationResult {
	for _, existing := range v.store.TxDefaultsForScope(scopeID) {
		if existing.StackLevel == profile.StackLevel && existing.ChargingProfileId != profile.ChargingProfileId {
			return DuplicateTxDefaultProfileFound
		}
	}
	return Valid
}

// ValidateTxProfile checks that a Tx profile is bound to the session it
// claims to steer. Checks run in a fixed order so each failure reports its
// most specific reason.
func (v *Validator) ValidateTxProfile(profile *types.ChargingProfile, scope Scope) ValidationResult {
	if profile.TransactionId == nil {
		return TxProfileMissingTransactionId
	}
	if scope == nil || scope.ID() <= 0 {
		return TxProfileEvseIdNotGreaterThanZero
	}
	transaction := scope.ActiveTransaction()
	if transaction == nil {
		return TxProfileEvseHasNoActiveTransaction
	}
	if transaction.Id != *profile.TransactionId {
		return TxProfileTransactionNotOnEvse
	}
	for _, existing := range v.store.All() {
		if existing.ChargingProfileId == profile.ChargingProfileId {
			continue
		}
		if existing.TransactionId != nil && *existing.TransactionId == *profile.TransactionId &&
			existing.StackLevel == profile.StackLevel {
			return TxProfileConflictingStackLevel
		}
	}
	return Valid
}

// ValidateProfileSchedules checks the schedule contents of a profile:
// period ordering, phase fields against the scope's current type, and the
// start schedule rules of the profile kind.
func (v *Validator) ValidateProfileSchedules(profile *types.ChargingProfile, scope Scope) ValidationResult {
	for _, schedule := range profile.Schedules() {
		periods := schedule.ChargingSchedulePeriod
		if len(periods) == 0 {
			return ChargingProfileNoChargingSchedulePeriods
		}
		for i := range periods {
			period := &periods[i]
			if period.PhaseToUse != nil && (period.NumberPhases == nil || *period.NumberPhases != 1) {
				return ChargingSchedulePeriodInvalidPhaseToUse
			}
			if i == 0 && period.StartPeriod != 0 {
				return ChargingProfileFirstStartScheduleIsNotZero
			}
			if i+1 < len(periods) && periods[i+1].StartPeriod <= period.StartPeriod {
				return ChargingSchedulePeriodsOutOfOrder
			}
			if scope != nil {
				switch scope.PhaseType() {
				case models.PhaseTypeDC:
					if period.NumberPhases != nil || period.PhaseToUse != nil {
						return ChargingSchedulePeriodExtraneousPhaseValues
					}
				case models.PhaseTypeAC:
					if period.NumberPhases != nil && *period.NumberPhases > defaultNumberPhases {
						return ChargingSchedulePeriodUnsupportedNumberPhases
					}
				}
			}
		}
		switch profile.ChargingProfileKind {
		case types.ChargingProfileKindRelative:
			if schedule.StartSchedule != nil {
				return ChargingProfileExtraneousStartSchedule
			}
		default:
			if schedule.StartSchedule == nil && !v.limits.AllowNoStartSchedule {
				return ChargingProfileMissingRequiredStartSchedule
			}
		}
	}
	return Valid
}

// ValidateProfile runs the full admission gate for an incoming profile.
func (v *Validator) ValidateProfile(profile *types.ChargingProfile, scopeID int) ValidationResult {
	if result := v.ValidateEvseExists(scopeID); !result.IsValid() {
		return result
	}
	if profile.StackLevel < 0 || profile.StackLevel > v.limits.MaxStackLevel {
		return ChargingProfileStackLevelOutOfRange
	}
	if v.store.Count() >= v.limits.MaxProfiles && !v.isReplacement(profile) {
		return ChargingProfileMaxInstalledExceeded
	}
	for _, schedule := range profile.Schedules() {
		if len(schedule.ChargingSchedulePeriod) > v.limits.MaxSchedulePeriods {
			return ChargingScheduleTooManyPeriods
		}
		if !v.rateUnitAllowed(schedule.ChargingRateUnit) {
			return ChargingScheduleUnsupportedRateUnit
		}
	}
	if profile.ChargingProfileKind == types.ChargingProfileKindRecurring && profile.RecurrencyKind == "" {
		return ChargingProfileMissingRecurrencyKind
	}
	scope, _ := v.scopes.Scope(scopeID)
	switch profile.ChargingProfilePurpose {
	case types.ChargingProfilePurposeChargePointMaxProfile:
		if scopeID != StationWideID {
			return ChargingStationMaxProfileEvseIdNotZero
		}
	case types.ChargingProfilePurposeTxDefaultProfile:
		if result := v.ValidateTxDefaultProfile(profile, scopeID); !result.IsValid() {
			return result
		}
	case types.ChargingProfilePurposeTxProfile:
		if scopeID == StationWideID {
			return TxProfileEvseIdNotGreaterThanZero
		}
		if !v.limits.IgnoreNoTransaction {
			if result := v.ValidateTxProfile(profile, scope); !result.IsValid() {
				return result
			}
		}
	}
	return v.ValidateProfileSchedules(profile, scope)
}

func (v *Validator) isReplacement(profile *types.ChargingProfile) bool {
	for _, existing := range v.store.All() {
		if existing.ChargingProfileId == profile.ChargingProfileId {
			return true
		}
	}
	return false
}

func (v *Validator) rateUnitAllowed(unit types.ChargingRateUnitType) bool {
	for _, allowed := range v.limits.AllowedRateUnits {
		if unit == allowed {
			return true
		}
	}
	return false
}

// NormalizeProfileSchedules fills schedule defaults before validation: on AC
// scopes a period without a phase count gets the three-phase default. The
// stored profile carries the corrected values.
func NormalizeProfileSchedules(profile *types.ChargingProfile, scope Scope) {
	if scope == nil || scope.PhaseType() != models.PhaseTypeAC {
		return
	}
	for _, schedule := range profile.Schedules() {
		for i := range schedule.ChargingSchedulePeriod {
			period := &schedule.ChargingSchedulePeriod[i]
			if period.NumberPhases == nil {
				phases := defaultNumberPhases
				period.NumberPhases = &phases
			}
		}
	}
}
