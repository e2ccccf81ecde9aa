package smartcharging

import "evstation/types"

const SetChargingProfileFeatureName = "SetChargingProfile"

type ChargingProfileStatus string

const (
	ChargingProfileStatusAccepted     ChargingProfileStatus = "Accepted"
	ChargingProfileStatusRejected     ChargingProfileStatus = "Rejected"
	ChargingProfileStatusNotSupported ChargingProfileStatus = "NotSupported"
)

type SetChargingProfileRequest struct {
	ConnectorId     int                    `json:"connectorId" validate:"gte=0"`
	ChargingProfile *types.ChargingProfile `json:"csChargingProfiles" validate:"required"`
}

func (r SetChargingProfileRequest) GetFeatureName() string {
	return SetChargingProfileFeatureName
}

func NewSetChargingProfileRequest(connectorId int, chargingProfile *types.ChargingProfile) *SetChargingProfileRequest {
	return &SetChargingProfileRequest{ConnectorId: connectorId, ChargingProfile: chargingProfile}
}

type SetChargingProfileConfirmation struct {
	Status ChargingProfileStatus `json:"status" validate:"required"`
}

func (c SetChargingProfileConfirmation) GetFeatureName() string {
	return SetChargingProfileFeatureName
}

func NewSetChargingProfileConfirmation(status ChargingProfileStatus) *SetChargingProfileConfirmation {
	return &SetChargingProfileConfirmation{Status: status}
}
