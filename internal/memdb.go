package internal

import (
	"sort"
	"sync"
)

// MemDB is the in-memory Database used when no external storage is
// configured. Installed profiles survive reconnects within the process;
// log messages are dropped.
type MemDB struct {
	mux      sync.Mutex
	profiles map[int]ChargingProfileRecord
}

func NewMemDB() *MemDB {
	return &MemDB{
		profiles: make(map[int]ChargingProfileRecord),
	}
}

func (m *MemDB) WriteLogMessage(Data) error {
	return nil
}

func (m *MemDB) ReadLog() (interface{}, error) {
	return []FeatureLogMessage{}, nil
}

func (m *MemDB) UpsertChargingProfile(record *ChargingProfileRecord) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.profiles[record.ProfileId] = *record
	return nil
}

func (m *MemDB) GetChargingProfiles() ([]ChargingProfileRecord, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	records := make([]ChargingProfileRecord, 0, len(m.profiles))
	for _, record := range m.profiles {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ProfileId < records[j].ProfileId
	})
	return records, nil
}

func (m *MemDB) DeleteChargingProfile(profileId int) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.profiles, profileId)
	return nil
}

func (m *MemDB) CountChargingProfiles() (int, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	return len(m.profiles), nil
}
