package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	body, err := ParseBodyType("STATION_WAGON")
	require.NoError(t, err)
	assert.Equal(t, BodyStationWagon, body)

	task, err := ParseTaskType("BUG")
	require.NoError(t, err)
	assert.Equal(t, TaskBug, task)

	building, err := ParseBuildingType("GARAGE")
	require.NoError(t, err)
	assert.Equal(t, BuildingGarage, building)

	color, err := ParseColor("RED_HAIRED")
	require.NoError(t, err)
	assert.Equal(t, ColorRedHaired, color)
}

func TestParseEnumRejectsUnknownText(t *testing.T) {
	for _, s := range []string{"", "sedan", "CONVERTIBLE"} {
		_, err := ParseBodyType(s)
		assert.ErrorIs(t, err, ErrUnknownEnum, s)
	}
	_, err := ParseColor("PURPLE")
	assert.ErrorIs(t, err, ErrUnknownEnum)
}

func TestDateTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("east", 5*3600)
	got := Date(time.Date(2021, 3, 4, 23, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), got)
	assert.True(t, Date(time.Time{}).IsZero())
}
