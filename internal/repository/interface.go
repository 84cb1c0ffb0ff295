// Package repository defines the room state store
package repository

import (
	"context"
	"time"

	"github.com/navikt/roomstatus/internal/models"
)

// ErrNotFound is returned when a room is not part of the catalogue
var ErrNotFound = models.ErrRoomNotFound

// Repository holds the current free/busy list of every catalogued room.
//
// Room metadata never changes. Interval lists are only ever replaced as a
// whole; when two writes for the same room race, the last one wins.
type Repository interface {
	// ListRooms returns every room in catalogue order
	ListRooms(ctx context.Context) ([]*models.Room, error)
	// GetRoom looks a room up by its classname
	GetRoom(ctx context.Context, classname string) (*models.Room, error)
	// ReplaceFreeBusy swaps in a new interval list for one room
	ReplaceFreeBusy(ctx context.Context, roomID string, intervals []models.FreeBusyInterval, at time.Time) error
	// RecordSyncFailure notes a failed fetch without touching the interval list
	RecordSyncFailure(ctx context.Context, roomID string, cause error, at time.Time) error
	// SyncStatuses reports the fetch history of every room in catalogue order
	SyncStatuses(ctx context.Context) ([]models.RoomSyncStatus, error)
}
