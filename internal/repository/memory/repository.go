// Package memory provides an in-memory implementation of the repository interface
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/navikt/roomstatus/internal/models"
)

// ErrNotFound is returned when a requested room is not in the catalogue
var ErrNotFound = models.ErrRoomNotFound

// roomState is one room's slot in the store
type roomState struct {
	room   models.Room
	status models.RoomSyncStatus
}

// Repository keeps room state in process memory.
//
// The mutex guards the container only; it is held for a copy, never across I/O.
type Repository struct {
	order       []string
	rooms       map[string]*roomState // keyed by room ID
	byClassname map[string]string
	mu          sync.RWMutex
}

// NewRepository creates a store seeded with the given rooms
func NewRepository(rooms []models.Room) *Repository {
	r := &Repository{
		order:       make([]string, 0, len(rooms)),
		rooms:       make(map[string]*roomState, len(rooms)),
		byClassname: make(map[string]string, len(rooms)),
	}
	for _, room := range rooms {
		seeded := *room.Clone()
		r.order = append(r.order, room.ID)
		r.rooms[room.ID] = &roomState{
			room:   seeded,
			status: models.RoomSyncStatus{RoomID: room.ID},
		}
		r.byClassname[room.Classname] = room.ID
	}
	return r
}

// ListRooms returns copies of all rooms in catalogue order
func (r *Repository) ListRooms(ctx context.Context) ([]*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(r.order))
	for _, id := range r.order {
		rooms = append(rooms, r.rooms[id].room.Clone())
	}
	return rooms, nil
}

// GetRoom returns a copy of the room with the given classname
func (r *Repository) GetRoom(ctx context.Context, classname string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byClassname[classname]
	if !ok {
		return nil, ErrNotFound
	}
	return r.rooms[id].room.Clone(), nil
}

// ReplaceFreeBusy swaps a room's interval list for a copy of intervals
func (r *Repository) ReplaceFreeBusy(ctx context.Context, roomID string, intervals []models.FreeBusyInterval, at time.Time) error {
	replacement := models.CopyIntervals(intervals)

	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	state.room.FreeBusy = replacement
	state.status.LastAttempt = at
	state.status.LastSuccess = at
	state.status.LastError = ""
	state.status.IntervalCount = len(replacement)
	return nil
}

// RecordSyncFailure stores the failure and leaves the interval list alone
func (r *Repository) RecordSyncFailure(ctx context.Context, roomID string, cause error, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	state.status.LastAttempt = at
	if cause != nil {
		state.status.LastError = cause.Error()
	}
	return nil
}

// SyncStatuses returns the fetch history of every room
func (r *Repository) SyncStatuses(ctx context.Context) ([]models.RoomSyncStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]models.RoomSyncStatus, 0, len(r.order))
	for _, id := range r.order {
		statuses = append(statuses, r.rooms[id].status)
	}
	return statuses, nil
}
