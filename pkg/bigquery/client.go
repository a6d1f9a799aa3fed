package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/gcp"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

// Keyed rows carry a streaming insert id so BigQuery drops retried duplicates.
type Keyed interface {
	InsertID() string
}

// Client streams analytics rows into one dataset.
type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	cfg     config.BigQueryConfig
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcpCfg.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	cfg.Dataset = strings.TrimSpace(cfg.Dataset)
	cfg.OrderEventsTable = strings.TrimSpace(cfg.OrderEventsTable)
	if cfg.Dataset == "" {
		return nil, errDatasetRequired
	}
	if cfg.OrderEventsTable == "" {
		return nil, errTableNameRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	c := &Client{client: bqClient, dataset: bqClient.Dataset(cfg.Dataset), cfg: cfg}
	if err := c.Ping(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dataset": cfg.Dataset,
			"table":   cfg.OrderEventsTable,
		}), "bigquery client initialized")
	}
	return c, nil
}

// Ping confirms the dataset and the order events table are readable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describeMetadataErr("dataset", c.cfg.Dataset, err)
	}
	if _, err := c.dataset.Table(c.cfg.OrderEventsTable).Metadata(ctx); err != nil {
		return describeMetadataErr("table", c.cfg.OrderEventsTable, err)
	}
	return nil
}

func describeMetadataErr(kind, name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}

// InsertRows streams rows into table. Rows implementing Keyed are sent with
// their insert id; per-row rejections are folded into one error.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}

	err := c.dataset.Table(table).Inserter().Put(ctx, savers(rows))
	return summarizePutErr(table, err)
}

func savers(rows []any) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		keyed, ok := row.(Keyed)
		if !ok {
			out[i] = row
			continue
		}
		out[i] = &bigquery.StructSaver{Struct: row, InsertID: keyed.InsertID()}
	}
	return out
}

func summarizePutErr(table string, err error) error {
	var multi bigquery.PutMultiError
	if !errors.As(err, &multi) || len(multi) == 0 {
		return err
	}
	first := multi[0]
	return fmt.Errorf("bigquery rejected %d row(s) in %s, first at index %d: %w", len(multi), table, first.RowIndex, first.Errors)
}

func (c *Client) OrderEventsTable() string {
	if c == nil {
		return ""
	}
	return c.cfg.OrderEventsTable
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
