package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evstation/types"
)

func profileRecord(profileId, connectorId, stackLevel int) *ChargingProfileRecord {
	return &ChargingProfileRecord{
		ProfileId:   profileId,
		ConnectorId: connectorId,
		Profile: types.ChargingProfile{
			ChargingProfileId:      profileId,
			StackLevel:             stackLevel,
			ChargingProfilePurpose: types.ChargingProfilePurposeTxDefaultProfile,
			ChargingProfileKind:    types.ChargingProfileKindRelative,
			ChargingSchedule: &types.ChargingSchedule{
				ChargingRateUnit:       types.ChargingRateUnitAmperes,
				ChargingSchedulePeriod: []types.ChargingSchedulePeriod{{StartPeriod: 0, Limit: 16}},
			},
		},
	}
}

func TestMemDBUpsertReplacesById(t *testing.T) {
	db := NewMemDB()

	require.NoError(t, db.UpsertChargingProfile(profileRecord(1, 1, 2)))
	require.NoError(t, db.UpsertChargingProfile(profileRecord(1, 2, 5)))

	count, err := db.CountChargingProfiles()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := db.GetChargingProfiles()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ConnectorId)
	assert.Equal(t, 5, records[0].Profile.StackLevel)
}

func TestMemDBGetChargingProfilesOrdered(t *testing.T) {
	db := NewMemDB()

	require.NoError(t, db.UpsertChargingProfile(profileRecord(5, 1, 0)))
	require.NoError(t, db.UpsertChargingProfile(profileRecord(2, 1, 0)))
	require.NoError(t, db.UpsertChargingProfile(profileRecord(9, 0, 0)))

	records, err := db.GetChargingProfiles()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 2, records[0].ProfileId)
	assert.Equal(t, 5, records[1].ProfileId)
	assert.Equal(t, 9, records[2].ProfileId)
}

func TestMemDBDeleteChargingProfile(t *testing.T) {
	db := NewMemDB()

	require.NoError(t, db.UpsertChargingProfile(profileRecord(1, 1, 0)))
	require.NoError(t, db.UpsertChargingProfile(profileRecord(2, 1, 0)))

	require.NoError(t, db.DeleteChargingProfile(1))
	require.NoError(t, db.DeleteChargingProfile(7))

	count, err := db.CountChargingProfiles()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
