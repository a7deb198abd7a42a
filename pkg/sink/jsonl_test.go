package sink

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/iJarvis/nyt-article-loader/pkg/loader"
)

func testBatch() []loader.Record {
	return []loader.Record{
		{"_id": "nyt://article/1", "headline.main": "First", "pub_date": "2021-08-01T00:00:00+0000"},
		{"_id": "nyt://article/2", "headline.main": "Second", "pub_date": "2021-08-02T00:00:00+0000"},
	}
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer file.Close()

	var reader = bufio.NewScanner(file)
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(file)
		if err != nil {
			t.Fatalf("gzip.NewReader() error = %v", err)
		}
		defer gz.Close()
		reader = bufio.NewScanner(gz)
	}

	var records []map[string]any
	for reader.Scan() {
		if len(reader.Bytes()) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(reader.Bytes(), &rec); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("Scanner error = %v", err)
	}
	return records
}

func TestJSONL_WriteBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.jsonl")

	s, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL() error = %v", err)
	}

	if err := s.WriteBatch(context.Background(), testBatch()); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := readLines(t, path)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["_id"] != "nyt://article/1" || records[1]["_id"] != "nyt://article/2" {
		t.Errorf("Records out of order: %v", records)
	}
	if records[0]["headline.main"] != "First" {
		t.Errorf("Expected flattened key preserved, got %v", records[0])
	}
}

func TestJSONL_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.jsonl.gz")

	s, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL() error = %v", err)
	}
	if err := s.WriteBatch(context.Background(), testBatch()); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := readLines(t, path)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records from gzip file, got %d", len(records))
	}
}

func TestJSONL_MultipleBatchesAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.jsonl")

	s, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL() error = %v", err)
	}

	ctx := context.Background()
	if err := s.WriteBatch(ctx, testBatch()); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	if err := s.WriteBatch(ctx, []loader.Record{{"_id": "nyt://article/3"}}); err != nil {
		t.Fatalf("WriteBatch() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := readLines(t, path)
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[2]["_id"] != "nyt://article/3" {
		t.Errorf("Expected batches in write order, got %v", records)
	}
}

func TestJSONL_WriteBatchCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.jsonl")

	s, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL() error = %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.WriteBatch(ctx, testBatch()); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestNewJSONL_BadPath(t *testing.T) {
	if _, err := NewJSONL(filepath.Join(t.TempDir(), "missing", "articles.jsonl")); err == nil {
		t.Error("Expected error for nonexistent directory")
	}
}
