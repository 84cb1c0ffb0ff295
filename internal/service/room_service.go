package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/availability"
	"github.com/navikt/roomstatus/internal/models"
	"github.com/navikt/roomstatus/internal/repository"
)

// FreeBusyFetcher retrieves one room's normalised intervals for the day containing now
type FreeBusyFetcher interface {
	FetchFreeBusy(ctx context.Context, roomID string, now time.Time) ([]models.FreeBusyInterval, error)
}

// RoomUpdateCallback is called after a room's interval list has been replaced
type RoomUpdateCallback func(room *models.Room)

// RoomService ties the feed, the state store and the classifier together
type RoomService struct {
	repo            repository.Repository
	fetcher         FreeBusyFetcher
	classifier      availability.Classifier
	now             func() time.Time
	logger          *zap.Logger
	updateCallbacks []RoomUpdateCallback
}

// NewRoomService creates a new RoomService
func NewRoomService(repo repository.Repository, fetcher FreeBusyFetcher, classifier availability.Classifier, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{
		repo:            repo,
		fetcher:         fetcher,
		classifier:      classifier,
		now:             time.Now,
		logger:          logger,
		updateCallbacks: make([]RoomUpdateCallback, 0),
	}
}

// WithClock replaces the time source, for tests
func (s *RoomService) WithClock(now func() time.Time) *RoomService {
	s.now = now
	return s
}

// Classifier returns the classifier used for every status in this service
func (s *RoomService) Classifier() availability.Classifier {
	return s.classifier
}

// RegisterUpdateCallback registers a callback function to be called when a room changes.
// Callbacks must be registered before syncing starts.
func (s *RoomService) RegisterUpdateCallback(callback RoomUpdateCallback) {
	s.updateCallbacks = append(s.updateCallbacks, callback)
}

// notifyUpdate calls all registered callbacks with the updated room
func (s *RoomService) notifyUpdate(room *models.Room) {
	for _, callback := range s.updateCallbacks {
		callback(room)
	}
}

// SyncRoom fetches one room's feed and, on success, replaces its interval list.
// On failure the previous list is kept and the error is recorded and returned.
func (s *RoomService) SyncRoom(ctx context.Context, room models.Room, now time.Time) error {
	intervals, err := s.fetcher.FetchFreeBusy(ctx, room.ID, now)
	if err != nil {
		s.logger.Warn("free/busy fetch failed",
			zap.String("room_id", room.ID),
			zap.String("room", room.Name),
			zap.Error(err),
		)
		if recErr := s.repo.RecordSyncFailure(ctx, room.ID, err, s.now()); recErr != nil {
			s.logger.Error("recording sync failure", zap.String("room_id", room.ID), zap.Error(recErr))
		}
		return fmt.Errorf("sync room %s: %w", room.ID, err)
	}

	if err := s.repo.ReplaceFreeBusy(ctx, room.ID, intervals, s.now()); err != nil {
		s.logger.Error("storing free/busy list failed", zap.String("room_id", room.ID), zap.Error(err))
		return fmt.Errorf("store room %s: %w", room.ID, err)
	}

	updated := room.Clone()
	updated.FreeBusy = models.CopyIntervals(intervals)
	s.notifyUpdate(updated)
	return nil
}

// GetAll returns every room with its current interval list
func (s *RoomService) GetAll(ctx context.Context) ([]*models.Room, error) {
	return s.repo.ListRooms(ctx)
}

// GetFree returns the rooms that are free right now
func (s *RoomService) GetFree(ctx context.Context) ([]*models.Room, error) {
	return s.filter(ctx, s.classifier.IsFree)
}

// GetBusy returns the rooms with a busy block in progress or about to start
func (s *RoomService) GetBusy(ctx context.Context) ([]*models.Room, error) {
	return s.filter(ctx, s.classifier.IsBusy)
}

// GetStatuses classifies every room at the current time
func (s *RoomService) GetStatuses(ctx context.Context) ([]models.RoomStatus, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	statuses := make([]models.RoomStatus, 0, len(rooms))
	for _, room := range rooms {
		statuses = append(statuses, s.classifier.Classify(room, now))
	}
	return statuses, nil
}

// GetRoom classifies a single room looked up by classname
func (s *RoomService) GetRoom(ctx context.Context, classname string) (models.RoomStatus, error) {
	room, err := s.repo.GetRoom(ctx, classname)
	if err != nil {
		return models.RoomStatus{}, err
	}
	return s.classifier.Classify(room, s.now()), nil
}

// GetSyncStatuses reports how the latest fetches went
func (s *RoomService) GetSyncStatuses(ctx context.Context) ([]models.RoomSyncStatus, error) {
	return s.repo.SyncStatuses(ctx)
}

func (s *RoomService) filter(ctx context.Context, keep func(*models.Room, time.Time) bool) ([]*models.Room, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]*models.Room, 0, len(rooms))
	for _, room := range rooms {
		if keep(room, now) {
			result = append(result, room)
		}
	}
	return result, nil
}
