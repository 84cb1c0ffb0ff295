package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/models"
)

// RoomDetail is a classified room together with how its feed has been syncing
type RoomDetail struct {
	models.RoomStatus
	Sync *models.RoomSyncStatus `json:"sync,omitempty"`
}

// SyncReport summarises the latest fetch outcome for every room
type SyncReport struct {
	Rooms   []models.RoomSyncStatus `json:"rooms"`
	Healthy int                     `json:"healthy"`
	Failing int                     `json:"failing"`
}

// RoomHandler serves the read-only room API
type RoomHandler struct {
	service RoomServicer
	logger  *zap.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(service RoomServicer, logger *zap.Logger) *RoomHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomHandler{
		service: service,
		logger:  logger,
	}
}

// ServeHTTP routes /api/rooms, /api/rooms/{free,busy,status} and /api/rooms/{classname}
func (h *RoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Path format: /api/rooms/{name}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/rooms"), "/")

	switch name {
	case "":
		h.listRooms(w, r, h.service.GetAll)
	case "free":
		h.listRooms(w, r, h.service.GetFree)
	case "busy":
		h.listRooms(w, r, h.service.GetBusy)
	case "status":
		h.listStatuses(w, r)
	default:
		if strings.Contains(name, "/") {
			http.NotFound(w, r)
			return
		}
		h.getRoom(w, r, name)
	}
}

func (h *RoomHandler) listRooms(w http.ResponseWriter, r *http.Request, list func(ctx context.Context) ([]*models.Room, error)) {
	rooms, err := list(r.Context())
	if err != nil {
		h.logger.Error("listing rooms", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "Error retrieving rooms", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) listStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.GetStatuses(r.Context())
	if err != nil {
		h.logger.Error("classifying rooms", zap.Error(err))
		http.Error(w, "Error retrieving room status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *RoomHandler) getRoom(w http.ResponseWriter, r *http.Request, classname string) {
	status, err := h.service.GetRoom(r.Context(), classname)
	if errors.Is(err, models.ErrRoomNotFound) {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("getting room", zap.String("classname", classname), zap.Error(err))
		http.Error(w, "Error retrieving room", http.StatusInternalServerError)
		return
	}

	detail := RoomDetail{RoomStatus: status}

	syncs, err := h.service.GetSyncStatuses(r.Context())
	if err != nil {
		h.logger.Warn("reading sync status", zap.String("classname", classname), zap.Error(err))
	}
	for i := range syncs {
		if syncs[i].RoomID == status.ID {
			detail.Sync = &syncs[i]
			break
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

// SyncStatusHandler serves GET /api/status
func SyncStatusHandler(service RoomServicer, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		syncs, err := service.GetSyncStatuses(r.Context())
		if err != nil {
			logger.Error("reading sync status", zap.Error(err))
			http.Error(w, "Error retrieving sync status", http.StatusInternalServerError)
			return
		}

		report := SyncReport{Rooms: syncs}
		for _, s := range syncs {
			if s.Healthy() {
				report.Healthy++
			} else {
				report.Failing++
			}
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
