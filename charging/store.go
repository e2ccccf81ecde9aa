package charging

import (
	"sort"

	"evstation/types"
)

// ScopedProfile pairs an installed profile with the scope it was installed on.
type ScopedProfile struct {
	ScopeID int
	Profile *types.ChargingProfile
}

// ProfileStore keeps installed charging profiles partitioned into a
// station-wide bucket and one bucket per scope. Installing a profile whose
// id is already present replaces the stored one, wherever it lives.
type ProfileStore struct {
	stationWide []*types.ChargingProfile
	byScope     map[int][]*types.ChargingProfile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		byScope: make(map[int][]*types.ChargingProfile),
	}
}

// Add installs a profile on the given scope. Scope id 0 lands in the
// station-wide bucket. A previously installed profile with the same id is
// removed first, so the profile id stays unique across the whole store.
func (s *ProfileStore) Add(scopeID int, profile *types.ChargingProfile) {
	s.removeById(profile.ChargingProfileId)
	if scopeID == StationWideID {
		s.stationWide = append(s.stationWide, profile)
		return
	}
	s.byScope[scopeID] = append(s.byScope[scopeID], profile)
}

func (s *ProfileStore) removeById(id int) {
	s.stationWide = withoutId(s.stationWide, id)
	for scopeID, profiles := range s.byScope {
		s.byScope[scopeID] = withoutId(profiles, id)
	}
}

func withoutId(profiles []*types.ChargingProfile, id int) []*types.ChargingProfile {
	result := profiles[:0]
	for _, profile := range profiles {
		if profile.ChargingProfileId != id {
			result = append(result, profile)
		}
	}
	return result
}

// ForScope returns the profiles installed directly on the given scope;
// station-wide profiles are returned for scope id 0 only.
func (s *ProfileStore) ForScope(scopeID int) []*types.ChargingProfile {
	if scopeID == StationWideID {
		return s.stationWide
	}
	return s.byScope[scopeID]
}

func (s *ProfileStore) StationWide() []*types.ChargingProfile {
	return s.stationWide
}

// Relevant returns every profile that applies to the given scope: the
// station-wide bucket plus the scope's own bucket.
func (s *ProfileStore) Relevant(scopeID int) []*types.ChargingProfile {
	profiles := make([]*types.ChargingProfile, 0, len(s.stationWide))
	profiles = append(profiles, s.stationWide...)
	if scopeID != StationWideID {
		profiles = append(profiles, s.byScope[scopeID]...)
	}
	return profiles
}

// AllScoped returns every installed profile in deterministic order:
// station-wide first, then per-scope buckets by ascending scope id,
// insertion order within each bucket.
func (s *ProfileStore) AllScoped() []ScopedProfile {
	result := make([]ScopedProfile, 0, s.Count())
	for _, profile := range s.stationWide {
		result = append(result, ScopedProfile{ScopeID: StationWideID, Profile: profile})
	}
	scopeIDs := make([]int, 0, len(s.byScope))
	for scopeID := range s.byScope {
		scopeIDs = append(scopeIDs, scopeID)
	}
	sort.Ints(scopeIDs)
	for _, scopeID := range scopeIDs {
		for _, profile := range s.byScope[scopeID] {
			result = append(result, ScopedProfile{ScopeID: scopeID, Profile: profile})
		}
	}
	return result
}

func (s *ProfileStore) All() []*types.ChargingProfile {
	scoped := s.AllScoped()
	result := make([]*types.ChargingProfile, len(scoped))
	for i, entry := range scoped {
		result[i] = entry.Profile
	}
	return result
}

func (s *ProfileStore) Count() int {
	count := len(s.stationWide)
	for _, profiles := range s.byScope {
		count += len(profiles)
	}
	return count
}

// TxDefaultsForScope returns the TxDefault profiles sharing the given scope:
// the station-wide bucket for scope id 0, otherwise that scope's own bucket.
func (s *ProfileStore) TxDefaultsForScope(scopeID int) []*types.ChargingProfile {
	var result []*types.ChargingProfile
	for _, profile := range s.ForScope(scopeID) {
		if profile.ChargingProfilePurpose == types.ChargingProfilePurposeTxDefaultProfile {
			result = append(result, profile)
		}
	}
	return result
}

// ClearWithFilter removes installed profiles and returns the removed ones.
// With matchIDOnly set, only the profile id is compared and the other
// criteria are ignored. Otherwise every provided criterion must match; a
// call with no criteria at all removes nothing.
func (s *ProfileStore) ClearWithFilter(id *int, purpose types.ChargingProfilePurposeType, stackLevel *int, scopeID *int, matchIDOnly bool) []*types.ChargingProfile {
	if matchIDOnly && id == nil {
		return nil
	}
	if !matchIDOnly && id == nil && purpose == "" && stackLevel == nil && scopeID == nil {
		return nil
	}
	var removed []*types.ChargingProfile
	keep := func(bucket int, profile *types.ChargingProfile) bool {
		if matchIDOnly {
			return profile.ChargingProfileId != *id
		}
		if id != nil && profile.ChargingProfileId != *id {
			return true
		}
		if purpose != "" && profile.ChargingProfilePurpose != purpose {
			return true
		}
		if stackLevel != nil && profile.StackLevel != *stackLevel {
			return true
		}
		if scopeID != nil && bucket != *scopeID {
			return true
		}
		return false
	}
	filter := func(bucket int, profiles []*types.ChargingProfile) []*types.ChargingProfile {
		result := profiles[:0]
		for _, profile := range profiles {
			if keep(bucket, profile) {
				result = append(result, profile)
			} else {
				removed = append(removed, profile)
			}
		}
		return result
	}
	s.stationWide = filter(StationWideID, s.stationWide)
	for bucket, profiles := range s.byScope {
		s.byScope[bucket] = filter(bucket, profiles)
	}
	return removed
}
