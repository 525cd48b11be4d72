//go:build integration

package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	database "github.com/FACorreiaa/go-roteiro-planner/app/db"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startContainer runs req and returns host:port of the first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start %s container", req.Image)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate %s container: %v", req.Image, err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()
	key := "draftSchedule:42"

	_, err := kv.Get(ctx, key)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, kv.Set(ctx, key, []byte(`{"title":"Ouro Preto","date":"2025-03-14"}`)))
	require.NoError(t, kv.Set(ctx, key, []byte(`{"title":"Paraty","date":"2025-03-15"}`)))

	got, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Paraty","date":"2025-03-15"}`, string(got))

	require.NoError(t, kv.Delete(ctx, key))
	_, err = kv.Get(ctx, key)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPostgresKV_Integration(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "roteiro",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	ctx := context.Background()
	logger := discardLogger()
	url := fmt.Sprintf("postgresql://test:test@%s/roteiro?sslmode=disable", addr)

	pool, err := database.Init(ctx, url, 5*time.Second, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.True(t, database.WaitForDB(ctx, pool, logger))
	require.NoError(t, database.RunMigrations(url, logger))

	exerciseKV(t, NewPostgresKV(pool, logger))
}

func TestRedisKV_Integration(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	exerciseKV(t, NewRedisKV(client, "roteiro:", discardLogger()))
}
