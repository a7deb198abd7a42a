package main

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iJarvis/nyt-article-loader/internal/config"
	"github.com/iJarvis/nyt-article-loader/internal/testutil"
	"github.com/iJarvis/nyt-article-loader/pkg/logging"
)

func TestRun_EndToEnd(t *testing.T) {
	mock := testutil.NewMockSearchAPI()
	defer mock.Close()

	mock.Enqueue(
		testutil.NewDocsResponse(3,
			testutil.Doc("nyt://article/1", "2021-08-01T00:00:00+0000", map[string]any{
				"headline": map[string]any{"main": "First"},
			}),
			testutil.Doc("nyt://article/2", "2021-08-02T00:00:00+0000", nil),
			testutil.Doc("nyt://article/3", "2021-08-03T00:00:00+0000", nil),
		),
		testutil.NewEmptyResponse(),
	)

	sinkPath := filepath.Join(t.TempDir(), "articles.jsonl")
	cfg := &config.Config{}
	cfg.Credentials.APIKey = "test-key"
	cfg.API.Query = "Silicon Valley"
	cfg.API.BaseURL = mock.URL()
	cfg.Loader.BatchSize = 2
	cfg.Loader.CooldownSeconds = -1 // no pacing in tests
	cfg.Loader.FaultDelaySeconds = -1
	cfg.Sink.Path = sinkPath

	logger := logging.Setup(logging.DefaultConfig())

	if err := run(context.Background(), cfg, logger); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	file, err := os.Open(sinkPath)
	if err != nil {
		t.Fatalf("Open sink output: %v", err)
	}
	defer file.Close()

	lines := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			lines++
		}
	}
	if lines != 3 {
		t.Errorf("Expected 3 records in sink output, got %d", lines)
	}

	if mock.GetRequestCount() != 2 {
		t.Errorf("Expected 2 upstream requests, got %d", mock.GetRequestCount())
	}
}
