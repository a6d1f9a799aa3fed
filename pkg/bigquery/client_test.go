package bigquery

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{Dataset: "ds", OrderEventsTable: "t"}, nil); !errors.Is(err, errProjectIDRequired) {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{OrderEventsTable: "t"}, nil); !errors.Is(err, errDatasetRequired) {
		t.Fatalf("expected dataset error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "ds"}, nil); !errors.Is(err, errTableNameRequired) {
		t.Fatalf("expected table error, got %v", err)
	}
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	if err := c.InsertRows(context.Background(), "order_events", []any{1}); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op, got %v", err)
	}
	if c.OrderEventsTable() != "" {
		t.Fatal("expected empty table name on nil client")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&googleapi.Error{Code: http.StatusNotFound}) {
		t.Fatal("expected 404 to be not found")
	}
	if isNotFound(&googleapi.Error{Code: http.StatusForbidden}) {
		t.Fatal("403 is not a not-found error")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("plain errors are not not-found errors")
	}
}

type keyedRow struct {
	ID string `bigquery:"id"`
}

func (r *keyedRow) InsertID() string { return r.ID }

type plainRow struct {
	ID string `bigquery:"id"`
}

func TestSaversAttachInsertIDs(t *testing.T) {
	out := savers([]any{&keyedRow{ID: "evt_1"}, &plainRow{ID: "x"}})

	saver, ok := out[0].(*bigquery.StructSaver)
	if !ok || saver.InsertID != "evt_1" {
		t.Fatalf("expected keyed row wrapped with insert id, got %#v", out[0])
	}
	if _, ok := out[1].(*plainRow); !ok {
		t.Fatalf("plain rows should pass through, got %#v", out[1])
	}
}

func TestSummarizePutErr(t *testing.T) {
	if err := summarizePutErr("order_events", nil); err != nil {
		t.Fatalf("nil stays nil, got %v", err)
	}
	plain := errors.New("transport down")
	if err := summarizePutErr("order_events", plain); !errors.Is(err, plain) {
		t.Fatalf("non row errors pass through, got %v", err)
	}

	multi := bigquery.PutMultiError{
		{RowIndex: 2, Errors: bigquery.MultiError{errors.New("no such field: foo")}},
		{RowIndex: 5, Errors: bigquery.MultiError{errors.New("bad")}},
	}
	err := summarizePutErr("order_events", multi)
	if err == nil || !strings.Contains(err.Error(), "rejected 2 row(s) in order_events, first at index 2") {
		t.Fatalf("unexpected summary %v", err)
	}
}
