package api

import (
	"context"

	"github.com/navikt/roomstatus/internal/models"
)

// RoomServicer defines the room service operations needed by API handlers
type RoomServicer interface {
	GetAll(ctx context.Context) ([]*models.Room, error)
	GetFree(ctx context.Context) ([]*models.Room, error)
	GetBusy(ctx context.Context) ([]*models.Room, error)
	GetStatuses(ctx context.Context) ([]models.RoomStatus, error)
	GetRoom(ctx context.Context, classname string) (models.RoomStatus, error)
	GetSyncStatuses(ctx context.Context) ([]models.RoomSyncStatus, error)
}

// ReadinessChecker reports whether the service has started syncing
type ReadinessChecker interface {
	Ready() bool
}
