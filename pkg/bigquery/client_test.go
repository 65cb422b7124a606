package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"google.golang.org/api/googleapi"
)

func TestConfiguredTables(t *testing.T) {
	tables := configuredTables(config.BigQueryConfig{ExecutionsTable: " workflow_executions "})
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if tables[0] != "workflow_executions" {
		t.Fatalf("expected workflow_executions, got %s", tables[0])
	}

	if tables := configuredTables(config.BigQueryConfig{}); len(tables) != 0 {
		t.Fatalf("expected no tables, got %v", tables)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{}, nil); !errors.Is(err, errProjectIDRequired) {
		t.Fatalf("expected project error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{}, nil); !errors.Is(err, errDatasetRequired) {
		t.Fatalf("expected dataset error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "d"}, nil); !errors.Is(err, errTableNameRequired) {
		t.Fatalf("expected table error, got %v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})) {
		t.Fatal("expected 404 to be not found")
	}
	if isNotFound(&googleapi.Error{Code: http.StatusForbidden}) {
		t.Fatal("403 should not be not found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("plain error should not be not found")
	}
}

func TestInsertRowsOnNilClient(t *testing.T) {
	var c *Client
	if err := c.InsertRows(context.Background(), "t", []any{struct{}{}}); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}
