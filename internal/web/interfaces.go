package web

import (
	"context"

	"github.com/navikt/roomstatus/internal/models"
)

// RoomServicer defines the contract for room services used by web handlers
type RoomServicer interface {
	GetStatuses(ctx context.Context) ([]models.RoomStatus, error)
}
