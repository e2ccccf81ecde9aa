package smartcharging

import "evstation/types"

const ClearChargingProfileFeatureName = "ClearChargingProfile"

type ClearChargingProfileStatus string

const (
	ClearChargingProfileStatusAccepted ClearChargingProfileStatus = "Accepted"
	ClearChargingProfileStatusUnknown  ClearChargingProfileStatus = "Unknown"
)

type ClearChargingProfileRequest struct {
	Id                     *int                             `json:"id,omitempty" validate:"omitempty"`
	ConnectorId            *int                             `json:"connectorId,omitempty" validate:"omitempty,gte=0"`
	ChargingProfilePurpose types.ChargingProfilePurposeType `json:"chargingProfilePurpose,omitempty" validate:"omitempty,chargingProfilePurpose"`
	StackLevel             *int                             `json:"stackLevel,omitempty" validate:"omitempty,gte=0"`
}

func (r ClearChargingProfileRequest) GetFeatureName() string {
	return ClearChargingProfileFeatureName
}

func NewClearChargingProfileRequest() *ClearChargingProfileRequest {
	return &ClearChargingProfileRequest{}
}

type ClearChargingProfileConfirmation struct {
	Status ClearChargingProfileStatus `json:"status" validate:"required"`
}

func (c ClearChargingProfileConfirmation) GetFeatureName() string {
	return ClearChargingProfileFeatureName
}

func NewClearChargingProfileConfirmation(status ClearChargingProfileStatus) *ClearChargingProfileConfirmation {
	return &ClearChargingProfileConfirmation{Status: status}
}
