package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/navikt/roomstatus/internal/config"
)

func defaults() config.Config {
	return config.Config{
		Port:         "5000",
		SyncInterval: 5 * time.Minute,
		BusyFuzz:     15 * time.Minute,
		LogLevel:     "info",
	}
}

func TestApplyFlagsKeepsEnvironmentDefaults(t *testing.T) {
	cfg := defaults()
	once, err := applyFlags(&cfg, nil)
	require.NoError(t, err)

	assert.False(t, once)
	assert.Equal(t, defaults(), cfg)
}

func TestApplyFlagsOverrides(t *testing.T) {
	cfg := defaults()
	once, err := applyFlags(&cfg, []string{
		"--port", "8080",
		"--rooms", "/etc/rooms.yaml",
		"--log-level", "debug",
		"--interval", "15",
		"--fuzz", "0",
		"--once",
	})
	require.NoError(t, err)

	assert.True(t, once)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/etc/rooms.yaml", cfg.RoomsFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, time.Duration(0), cfg.BusyFuzz)
}

func TestApplyFlagsRejectsBadValues(t *testing.T) {
	for _, args := range [][]string{
		{"--interval", "0"},
		{"--interval", "61"},
		{"--fuzz", "-1"},
		{"--interval", "five"},
		{"stray"},
	} {
		cfg := defaults()
		_, err := applyFlags(&cfg, args)
		assert.Error(t, err, args)
	}
}

func TestApplyFlagsHelp(t *testing.T) {
	cfg := defaults()
	_, err := applyFlags(&cfg, []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunSchedulerLogsExit(t *testing.T) {
	t.Run("Cancelled", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		runScheduler(ctx, runFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}), zap.New(core))

		entries := logs.FilterMessage("scheduler stopped").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	})

	t.Run("Failed", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)

		runScheduler(context.Background(), runFunc(func(context.Context) error {
			return errors.New("repository closed")
		}), zap.New(core))

		entries := logs.FilterMessage("scheduler stopped").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "repository closed", entries[0].ContextMap()["error"])
	})
}
