package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iJarvis/nyt-article-loader/internal/testutil"
	"github.com/iJarvis/nyt-article-loader/pkg/cache"
	"github.com/iJarvis/nyt-article-loader/pkg/loader"
	"github.com/iJarvis/nyt-article-loader/pkg/nyt"
	"github.com/iJarvis/nyt-article-loader/pkg/pacing"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// scriptPages scripts two healthy pages followed by exhaustion.
func scriptPages(mock *testutil.MockSearchAPI) {
	mock.Enqueue(
		testutil.NewDocsResponse(5,
			testutil.Doc("nyt://article/1", "2021-08-01T00:00:00+0000", map[string]any{
				"headline": map[string]any{"main": "One"},
			}),
			testutil.Doc("nyt://article/2", "2021-08-02T00:00:00+0000", nil),
			testutil.Doc("nyt://article/3", "2021-08-03T00:00:00+0000", nil),
		),
		testutil.NewDocsResponse(5,
			testutil.Doc("nyt://article/3", "2021-08-03T00:00:00+0000", nil), // duplicate
			testutil.Doc("nyt://article/4", "2021-08-04T00:00:00+0000", nil),
			testutil.Doc("nyt://article/5", "2021-08-05T00:00:00+0000", nil),
		),
		testutil.NewEmptyResponse(),
	)
}

// newSource wires a real client against the mock server.
func newSource(t *testing.T, mock *testutil.MockSearchAPI, cacheManager *cache.Manager, batchSize int) *loader.Source {
	t.Helper()

	client, err := nyt.New(nyt.Config{
		APIKey:  "integration-key",
		Query:   "Silicon Valley",
		BaseURL: mock.URL(),
		Cache:   cacheManager,
	})
	if err != nil {
		t.Fatalf("nyt.New() error = %v", err)
	}

	source, err := loader.NewSource(client, loader.Config{
		BatchSize: batchSize,
		Pacer:     pacing.New(0, 0),
	})
	if err != nil {
		t.Fatalf("loader.NewSource() error = %v", err)
	}
	return source
}

// TestLoaderFlow exercises the complete flow: HTTP fetch → decode → flatten
// → dedup → batch emission.
func TestLoaderFlow(t *testing.T) {
	mock := testutil.NewMockSearchAPI()
	defer mock.Close()
	scriptPages(mock)

	source := newSource(t, mock, nil, 2)
	run := source.Run()
	ctx := context.Background()

	var ids []string
	for {
		batch, ok, err := run.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			break
		}
		for _, rec := range batch {
			id, _ := rec["_id"].(string)
			ids = append(ids, id)
		}
	}

	expected := []string{
		"nyt://article/1", "nyt://article/2", "nyt://article/3",
		"nyt://article/4", "nyt://article/5",
	}
	if len(ids) != len(expected) {
		t.Fatalf("Expected %d unique records, got %d (%v)", len(expected), len(ids), ids)
	}
	for i, id := range expected {
		if ids[i] != id {
			t.Errorf("Record %d = %q, want %q", i, ids[i], id)
		}
	}
}

// TestLoaderFlow_WithResponseCache verifies a second run over the same pages
// is served from Redis without touching the provider again.
func TestLoaderFlow_WithResponseCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockSearchAPI()
	defer mock.Close()
	scriptPages(mock)

	manager := cache.NewManager(redisClient, time.Minute)
	source := newSource(t, mock, manager, 5)
	ctx := context.Background()

	countRecords := func(run *loader.Run) int {
		t.Helper()
		total := 0
		for {
			batch, ok, err := run.Next(ctx)
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if !ok {
				return total
			}
			total += len(batch)
		}
	}

	if got := countRecords(source.Run()); got != 5 {
		t.Fatalf("First run: expected 5 records, got %d", got)
	}
	firstRequests := mock.GetRequestCount()

	// Second run: the two document pages come from cache; only the
	// zero-hit terminator (never cached) hits the provider.
	mock.Enqueue(testutil.NewEmptyResponse())
	if got := countRecords(source.Run()); got != 5 {
		t.Fatalf("Second run: expected 5 records (fresh seen-set), got %d", got)
	}

	if extra := mock.GetRequestCount() - firstRequests; extra != 1 {
		t.Errorf("Expected 1 upstream request on cached run, got %d", extra)
	}
}
