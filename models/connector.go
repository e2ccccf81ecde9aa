package models

type PhaseType string

const (
	PhaseTypeAC      PhaseType = "AC"
	PhaseTypeDC      PhaseType = "DC"
	PhaseTypeUnknown PhaseType = "Unknown"
)

type Connector struct {
	Id        int       `json:"connector_id" bson:"connector_id"`
	PhaseType PhaseType `json:"phase_type" bson:"phase_type"`
	IsEnabled bool      `json:"is_enabled" bson:"is_enabled"`
	Status    string    `json:"status" bson:"status"`
}
