package repository

import (
	"github.com/navikt/roomstatus/internal/config"
	"github.com/navikt/roomstatus/internal/models"
	"github.com/navikt/roomstatus/internal/repository/memory"
	"github.com/navikt/roomstatus/internal/repository/redis"
)

// NewRepository picks the Redis store when enabled and the in-memory one otherwise.
// Either way the store is seeded with rooms.
func NewRepository(cfg config.RedisConfig, rooms []models.Room) (Repository, error) {
	if cfg.Enabled {
		repo, err := redis.NewRepository(cfg, rooms)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return memory.NewRepository(rooms), nil
}
