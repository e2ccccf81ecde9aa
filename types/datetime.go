package types

import (
	"encoding/json"
	"time"
)

// DateTime wraps a time.Time struct, allowing for improved dateTime JSON compatibility.
type DateTime struct {
	time.Time
}

// NewDateTime Creates a new DateTime struct, embedding a time.Time struct.
func NewDateTime(time time.Time) *DateTime {
	return &DateTime{Time: time}
}

// ParseDateTime reads an RFC3339 timestamp, with or without fractional seconds.
func ParseDateTime(value string) (*DateTime, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", value)
		if err != nil {
			return nil, err
		}
	}
	return NewDateTime(t), nil
}

func (dt *DateTime) UnmarshalJSON(input []byte) error {
	var value string
	if err := json.Unmarshal(input, &value); err != nil {
		return err
	}
	parsed, err := ParseDateTime(value)
	if err != nil {
		return err
	}
	dt.Time = parsed.Time
	return nil
}

func (dt *DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.Time.UTC().Format(time.RFC3339))
}
