package redisstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scoutdig/scout/internal/session/redisstore"
	"github.com/scoutdig/scout/models"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	defer client.Close()
	store := redisstore.NewStoreWithClient(client, time.Hour)

	id, err := store.Ensure(ctx, "")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if id == "" {
		t.Fatal("expected a minted session id")
	}

	turns := []models.Turn{
		{Role: models.RoleUser, Content: "what do climbers think of board training"},
		{Role: models.RoleAssistant, Content: "opinions lean positive"},
	}
	if err := store.Append(ctx, id, turns...); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.History(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
	if got[0].Role != models.RoleUser || got[1].Content != "opinions lean positive" {
		t.Fatalf("history mismatch: %+v", got)
	}

	if err := store.Clear(ctx, id); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = store.History(ctx, id)
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(got))
	}
}
