// Package redis provides a Redis/Valkey implementation of the repository interface.
// It lets several replicas serve the same free/busy snapshot.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/navikt/roomstatus/internal/config"
	"github.com/navikt/roomstatus/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a requested room is not in the catalogue
var ErrNotFound = models.ErrRoomNotFound

// sync status hash fields
const (
	fieldLastAttempt   = "last_attempt"
	fieldLastSuccess   = "last_success"
	fieldLastError     = "last_error"
	fieldIntervalCount = "interval_count"
)

// Repository keeps the catalogue in process and the mutable state in Redis
type Repository struct {
	client      *redis.Client
	keyPrefix   string
	ttl         time.Duration
	rooms       []models.Room
	byID        map[string]int
	byClassname map[string]int
}

// NewRepository creates a new Redis repository seeded with rooms
func NewRepository(cfg config.RedisConfig, rooms []models.Room) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}

		// Use DB from config if not specified in the URI
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}

		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}

		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r := &Repository{
		client:      client,
		keyPrefix:   cfg.KeyPrefix,
		ttl:         cfg.FreeBusyTTL,
		rooms:       make([]models.Room, 0, len(rooms)),
		byID:        make(map[string]int, len(rooms)),
		byClassname: make(map[string]int, len(rooms)),
	}
	for _, room := range rooms {
		r.byID[room.ID] = len(r.rooms)
		r.byClassname[room.Classname] = len(r.rooms)
		r.rooms = append(r.rooms, *room.Clone())
	}
	return r, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// freeBusyKey returns the Redis key holding a room's interval list
func (r *Repository) freeBusyKey(roomID string) string {
	return fmt.Sprintf("%srooms:%s:freebusy", r.keyPrefix, roomID)
}

// syncKey returns the Redis key of a room's sync status hash
func (r *Repository) syncKey(roomID string) string {
	return fmt.Sprintf("%srooms:%s:sync", r.keyPrefix, roomID)
}

// ListRooms returns all rooms with their stored interval lists in one round trip
func (r *Repository) ListRooms(ctx context.Context) ([]*models.Room, error) {
	if len(r.rooms) == 0 {
		return []*models.Room{}, nil
	}

	keys := make([]string, len(r.rooms))
	for i, room := range r.rooms {
		keys[i] = r.freeBusyKey(room.ID)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get free/busy data: %w", err)
	}

	rooms := make([]*models.Room, 0, len(r.rooms))
	for i := range r.rooms {
		room := r.rooms[i].Clone()
		if s, ok := values[i].(string); ok {
			intervals, err := decodeIntervals([]byte(s))
			if err != nil {
				return nil, fmt.Errorf("room %s: %w", room.ID, err)
			}
			room.FreeBusy = intervals
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// GetRoom returns a room by classname with its stored interval list
func (r *Repository) GetRoom(ctx context.Context, classname string) (*models.Room, error) {
	i, ok := r.byClassname[classname]
	if !ok {
		return nil, ErrNotFound
	}
	room := r.rooms[i].Clone()

	data, err := r.client.Get(ctx, r.freeBusyKey(room.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return room, nil
		}
		return nil, fmt.Errorf("failed to get free/busy data: %w", err)
	}

	intervals, err := decodeIntervals(data)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", room.ID, err)
	}
	room.FreeBusy = intervals
	return room, nil
}

// ReplaceFreeBusy overwrites a room's interval list and marks the sync successful
func (r *Repository) ReplaceFreeBusy(ctx context.Context, roomID string, intervals []models.FreeBusyInterval, at time.Time) error {
	if _, ok := r.byID[roomID]; !ok {
		return ErrNotFound
	}

	data, err := json.Marshal(models.CopyIntervals(intervals))
	if err != nil {
		return fmt.Errorf("failed to marshal intervals: %w", err)
	}

	stamp := at.UTC().Format(time.RFC3339Nano)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.freeBusyKey(roomID), data, r.ttl)
	pipe.HSet(ctx, r.syncKey(roomID),
		fieldLastAttempt, stamp,
		fieldLastSuccess, stamp,
		fieldLastError, "",
		fieldIntervalCount, len(intervals),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.syncKey(roomID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save free/busy data: %w", err)
	}
	return nil
}

// RecordSyncFailure stores the error. The interval list is left as it is and its
// expiry is pushed back, so a room keeps its last known list while fetches fail.
func (r *Repository) RecordSyncFailure(ctx context.Context, roomID string, cause error, at time.Time) error {
	if _, ok := r.byID[roomID]; !ok {
		return ErrNotFound
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.syncKey(roomID),
		fieldLastAttempt, at.UTC().Format(time.RFC3339Nano),
		fieldLastError, msg,
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.syncKey(roomID), r.ttl)
		pipe.Expire(ctx, r.freeBusyKey(roomID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record sync failure: %w", err)
	}
	return nil
}

// SyncStatuses reads every room's sync hash
func (r *Repository) SyncStatuses(ctx context.Context) ([]models.RoomSyncStatus, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(r.rooms))
	for i, room := range r.rooms {
		cmds[i] = pipe.HGetAll(ctx, r.syncKey(room.ID))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to read sync statuses: %w", err)
		}
	}

	statuses := make([]models.RoomSyncStatus, 0, len(r.rooms))
	for i, room := range r.rooms {
		fields := cmds[i].Val()
		status := models.RoomSyncStatus{
			RoomID:    room.ID,
			LastError: fields[fieldLastError],
		}
		status.LastAttempt, _ = time.Parse(time.RFC3339Nano, fields[fieldLastAttempt])
		status.LastSuccess, _ = time.Parse(time.RFC3339Nano, fields[fieldLastSuccess])
		status.IntervalCount, _ = strconv.Atoi(fields[fieldIntervalCount])
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func decodeIntervals(data []byte) ([]models.FreeBusyInterval, error) {
	intervals := []models.FreeBusyInterval{}
	if err := json.Unmarshal(data, &intervals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intervals: %w", err)
	}
	if intervals == nil {
		intervals = []models.FreeBusyInterval{}
	}
	return intervals, nil
}
