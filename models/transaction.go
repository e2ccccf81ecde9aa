package models

import "time"

// Transaction is the station-side view of a charging session. The smart
// charging code only ever reads it; session lifecycle lives elsewhere.
type Transaction struct {
	Id          int       `json:"transaction_id" bson:"transaction_id"`
	ConnectorId int       `json:"connector_id" bson:"connector_id"`
	IdTag       string    `json:"id_tag" bson:"id_tag"`
	MeterStart  int       `json:"meter_start" bson:"meter_start"`
	TimeStart   time.Time `json:"time_start" bson:"time_start"`
	IsFinished  bool      `json:"is_finished" bson:"is_finished"`
}
