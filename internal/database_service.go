package internal

import "evstation/types"

// ChargingProfileRecord is the persisted form of an installed profile,
// keyed by the station-unique profile id.
type ChargingProfileRecord struct {
	ProfileId   int                   `json:"profile_id" bson:"profile_id"`
	ConnectorId int                   `json:"connector_id" bson:"connector_id"`
	Profile     types.ChargingProfile `json:"profile" bson:"profile"`
}

const ChargingProfileRecordType = "chargingProfileRecord"

func (r *ChargingProfileRecord) DataType() string {
	return ChargingProfileRecordType
}

type Database interface {
	WriteLogMessage(data Data) error
	ReadLog() (interface{}, error)
	UpsertChargingProfile(record *ChargingProfileRecord) error
	GetChargingProfiles() ([]ChargingProfileRecord, error)
	DeleteChargingProfile(profileId int) error
	CountChargingProfiles() (int, error)
}

type Data interface {
	DataType() string
}
