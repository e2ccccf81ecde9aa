package smartcharging

import "evstation/types"

const GetCompositeScheduleFeatureName = "GetCompositeSchedule"

type GetCompositeScheduleStatus string

const (
	GetCompositeScheduleStatusAccepted GetCompositeScheduleStatus = "Accepted"
	GetCompositeScheduleStatusRejected GetCompositeScheduleStatus = "Rejected"
)

type GetCompositeScheduleRequest struct {
	ConnectorId      int                        `json:"connectorId" validate:"gte=0"`
	Duration         int                        `json:"duration" validate:"gte=0"`
	ChargingRateUnit types.ChargingRateUnitType `json:"chargingRateUnit,omitempty" validate:"omitempty,chargingRateUnit"`
}

func (r GetCompositeScheduleRequest) GetFeatureName() string {
	return GetCompositeScheduleFeatureName
}

func NewGetCompositeScheduleRequest(connectorId int, duration int) *GetCompositeScheduleRequest {
	return &GetCompositeScheduleRequest{ConnectorId: connectorId, Duration: duration}
}

type GetCompositeScheduleConfirmation struct {
	Status           GetCompositeScheduleStatus `json:"status" validate:"required"`
	ConnectorId      *int                       `json:"connectorId,omitempty"`
	ScheduleStart    *types.DateTime            `json:"scheduleStart,omitempty"`
	ChargingSchedule *types.ChargingSchedule    `json:"chargingSchedule,omitempty"`
}

func (c GetCompositeScheduleConfirmation) GetFeatureName() string {
	return GetCompositeScheduleFeatureName
}

func NewGetCompositeScheduleConfirmation(status GetCompositeScheduleStatus) *GetCompositeScheduleConfirmation {
	return &GetCompositeScheduleConfirmation{Status: status}
}
