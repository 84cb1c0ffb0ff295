package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/navikt/roomstatus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFreeBusyType(t *testing.T) {
	assert.Equal(t, models.FreeBusyFree, models.ParseFreeBusyType("FREE"))
	assert.Equal(t, models.FreeBusyFree, models.ParseFreeBusyType(" free "))
	assert.Equal(t, models.FreeBusyBusy, models.ParseFreeBusyType("BUSY"))
	assert.Equal(t, models.FreeBusyBusy, models.ParseFreeBusyType("BUSY-TENTATIVE"))
	assert.Equal(t, models.FreeBusyBusy, models.ParseFreeBusyType("BUSY-UNAVAILABLE"))
	assert.Equal(t, models.FreeBusyBusy, models.ParseFreeBusyType(""))
}

func TestFreeBusyInterval(t *testing.T) {
	start := time.Date(2014, 5, 16, 10, 0, 0, 0, time.UTC)
	fb := models.FreeBusyInterval{Start: start, End: start.Add(time.Hour), Type: models.FreeBusyBusy}

	assert.NoError(t, fb.Validate())
	assert.True(t, fb.Contains(start.Add(time.Minute)))
	assert.False(t, fb.Contains(start), "boundaries are exclusive")
	assert.False(t, fb.Contains(start.Add(time.Hour)))

	inverted := models.FreeBusyInterval{Start: start, End: start}
	assert.Error(t, inverted.Validate())
}

func TestRoomJSON(t *testing.T) {
	start := time.Date(2014, 5, 16, 14, 0, 0, 0, time.UTC)
	room := models.Room{
		ID:                   "5e",
		Name:                 "Finch",
		Classname:            "finch",
		Neighborhood:         "northeast",
		Size:                 "large",
		HasVideoConferencing: true,
		FreeBusy: []models.FreeBusyInterval{
			{Start: start, End: start.Add(30 * time.Minute), Type: models.FreeBusyBusy},
		},
	}

	data, err := json.Marshal(room)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "name", "classname", "neighborhood", "size", "hasVideoConferencing", "freebusy"} {
		assert.Contains(t, fields, key)
	}

	freebusy := fields["freebusy"].([]interface{})
	require.Len(t, freebusy, 1)
	assert.Equal(t, "BUSY", freebusy[0].(map[string]interface{})["type"])
	assert.Equal(t, "2014-05-16T14:00:00Z", freebusy[0].(map[string]interface{})["start"])
}

func TestRoomClone(t *testing.T) {
	start := time.Date(2014, 5, 16, 14, 0, 0, 0, time.UTC)
	room := &models.Room{ID: "5a", FreeBusy: []models.FreeBusyInterval{{Start: start, End: start.Add(time.Hour)}}}

	clone := room.Clone()
	clone.FreeBusy[0].Type = models.FreeBusyFree

	assert.Empty(t, room.FreeBusy[0].Type)
	assert.NotNil(t, (&models.Room{}).Clone().FreeBusy)
}

func TestRoomStatusCSSClasses(t *testing.T) {
	status := models.RoomStatus{Room: &models.Room{}, IsAlmostFree: true, IsReallyBusy: true}
	assert.Equal(t, []string{"almostFree", "reallyBusy"}, status.CSSClasses())

	status = models.RoomStatus{Room: &models.Room{}, IsFree: true}
	assert.Equal(t, []string{"free"}, status.CSSClasses())
}

func TestRoomSyncStatusHealthy(t *testing.T) {
	now := time.Now()
	assert.False(t, models.RoomSyncStatus{}.Healthy())
	assert.True(t, models.RoomSyncStatus{LastAttempt: now, LastSuccess: now}.Healthy())
	assert.False(t, models.RoomSyncStatus{LastAttempt: now, LastSuccess: now.Add(-5 * time.Minute), LastError: "timeout"}.Healthy())
	assert.False(t, models.RoomSyncStatus{LastAttempt: now, LastError: "timeout"}.Healthy())
}
