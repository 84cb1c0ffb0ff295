package api

import (
	"net/http"

	"go.uber.org/zap"
)

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(service RoomServicer, ready ReadinessChecker, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints for Kubernetes
	mux.HandleFunc("/health/live", HealthLiveHandler)
	mux.HandleFunc("/health/ready", NewHealthReadyHandler(ready))

	// Room state endpoints
	roomHandler := NewRoomHandler(service, logger)
	mux.Handle("/api/rooms", roomHandler)
	mux.Handle("/api/rooms/", roomHandler)
	mux.Handle("/api/status", SyncStatusHandler(service, logger))

	return mux
}
