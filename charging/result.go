package charging

import "fmt"

// ValidationResult is the outcome of checking a charging profile before it
// is installed. Every rejection carries a specific reason so the protocol
// layer can report why a profile was refused.
type ValidationResult int

const (
	Valid ValidationResult = iota
	EvseDoesNotExist
	TxProfileMissingTransactionId
	TxProfileEvseIdNotGreaterThanZero
	TxProfileTransactionNotOnEvse
	TxProfileEvseHasNoActiveTransaction
	TxProfileConflictingStackLevel
	ChargingProfileNoChargingSchedulePeriods
	ChargingProfileFirstStartScheduleIsNotZero
	ChargingProfileMissingRequiredStartSchedule
	ChargingProfileExtraneousStartSchedule
	ChargingSchedulePeriodsOutOfOrder
	ChargingSchedulePeriodInvalidPhaseToUse
	ChargingSchedulePeriodUnsupportedNumberPhases
	ChargingSchedulePeriodExtraneousPhaseValues
	DuplicateTxDefaultProfileFound
	ChargingProfileStackLevelOutOfRange
	ChargingProfileMaxInstalledExceeded
	ChargingScheduleTooManyPeriods
	ChargingScheduleUnsupportedRateUnit
	ChargingProfileMissingRecurrencyKind
	ChargingStationMaxProfileEvseIdNotZero
)

var validationResultNames = map[ValidationResult]string{
	Valid:                                         "Valid",
	EvseDoesNotExist:                              "EvseDoesNotExist",
	TxProfileMissingTransactionId:                 "TxProfileMissingTransactionId",
	TxProfileEvseIdNotGreaterThanZero:             "TxProfileEvseIdNotGreaterThanZero",
	TxProfileTransactionNotOnEvse:                 "TxProfileTransactionNotOnEvse",
	TxProfileEvseHasNoActiveTransaction:           "TxProfileEvseHasNoActiveTransaction",
	TxProfileConflictingStackLevel:                "TxProfileConflictingStackLevel",
	ChargingProfileNoChargingSchedulePeriods:      "ChargingProfileNoChargingSchedulePeriods",
	ChargingProfileFirstStartScheduleIsNotZero:    "ChargingProfileFirstStartScheduleIsNotZero",
	ChargingProfileMissingRequiredStartSchedule:   "ChargingProfileMissingRequiredStartSchedule",
	ChargingProfileExtraneousStartSchedule:        "ChargingProfileExtraneousStartSchedule",
	ChargingSchedulePeriodsOutOfOrder:             "ChargingSchedulePeriodsOutOfOrder",
	ChargingSchedulePeriodInvalidPhaseToUse:       "ChargingSchedulePeriodInvalidPhaseToUse",
	ChargingSchedulePeriodUnsupportedNumberPhases: "ChargingSchedulePeriodUnsupportedNumberPhases",
	ChargingSchedulePeriodExtraneousPhaseValues:   "ChargingSchedulePeriodExtraneousPhaseValues",
	DuplicateTxDefaultProfileFound:                "DuplicateTxDefaultProfileFound",
	ChargingProfileStackLevelOutOfRange:           "ChargingProfileStackLevelOutOfRange",
	ChargingProfileMaxInstalledExceeded:           "ChargingProfileMaxInstalledExceeded",
	ChargingScheduleTooManyPeriods:                "ChargingScheduleTooManyPeriods",
	ChargingScheduleUnsupportedRateUnit:           "ChargingScheduleUnsupportedRateUnit",
	ChargingProfileMissingRecurrencyKind:          "ChargingProfileMissingRecurrencyKind",
	ChargingStationMaxProfileEvseIdNotZero:        "ChargingStationMaxProfileEvseIdNotZero",
}

func (r ValidationResult) String() string {
	if name, ok := validationResultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ValidationResult(%d)", int(r))
}

func (r ValidationResult) IsValid() bool {
	return r == Valid
}
