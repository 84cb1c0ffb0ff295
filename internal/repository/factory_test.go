package repository_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/navikt/roomstatus/internal/config"
	"github.com/navikt/roomstatus/internal/models"
	"github.com/navikt/roomstatus/internal/repository"
	"github.com/navikt/roomstatus/internal/repository/memory"
	"github.com/navikt/roomstatus/internal/repository/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rooms = []models.Room{{ID: "5a", Name: "King", Classname: "king"}}

func TestNewRepositoryDefaultsToMemory(t *testing.T) {
	repo, err := repository.NewRepository(config.RedisConfig{}, rooms)
	require.NoError(t, err)
	assert.IsType(t, &memory.Repository{}, repo)

	room, err := repo.GetRoom(context.Background(), "king")
	require.NoError(t, err)
	assert.Equal(t, "5a", room.ID)
}

func TestNewRepositoryUsesRedisWhenEnabled(t *testing.T) {
	mr := miniredis.RunT(t)

	repo, err := repository.NewRepository(config.RedisConfig{
		Enabled:   true,
		URI:       "redis://" + mr.Addr(),
		KeyPrefix: "test:",
	}, rooms)
	require.NoError(t, err)
	assert.IsType(t, &redis.Repository{}, repo)
	defer repo.(*redis.Repository).Close()

	_, err = repo.GetRoom(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNewRepositoryReportsUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	repo, err := repository.NewRepository(config.RedisConfig{Enabled: true, URI: "redis://" + addr}, rooms)
	assert.Error(t, err)
	assert.Nil(t, repo)
}
