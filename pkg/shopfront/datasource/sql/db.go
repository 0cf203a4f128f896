// Package sql wraps a PostgreSQL connection pool with query logging, latency metrics and tracing.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"shopfront.dev/pkg/shopfront/datasource"
)

type Metrics interface {
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)
}

// DB is a wrapper around sql.DB which logs and measures every statement.
type DB struct {
	*sql.DB
	logger  datasource.Logger
	config  *DBConfig
	metrics Metrics

	stop      chan struct{}
	closeOnce sync.Once
}

type Log struct {
	Type     string `json:"type"`
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Args     []any  `json:"args,omitempty"`
}

func (l *Log) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-6s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
		l.Type, "SQL", l.Duration, clean(l.Query))
}

var whitespace = regexp.MustCompile(`\s+`)

func clean(query string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
}

func (d *DB) sendOperationStats(ctx context.Context, start time.Time, queryType, query string, args ...any) {
	duration := time.Since(start)

	d.logger.Debug(&Log{
		Type:     queryType,
		Query:    query,
		Duration: duration.Microseconds(),
		Args:     args,
	})

	d.metrics.RecordHistogram(ctx, "app_sql_stats", float64(duration.Microseconds())/1e3, "hostname", d.config.HostName,
		"database", d.config.Database, "type", getOperationType(query))
}

func getOperationType(query string) string {
	query = strings.TrimSpace(query)
	words := strings.Fields(query)

	if len(words) == 0 {
		return ""
	}

	return strings.ToUpper(words[0])
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer d.sendOperationStats(ctx, time.Now(), "QueryContext", query, args...)

	return d.DB.QueryContext(ctx, query, args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer d.sendOperationStats(ctx, time.Now(), "QueryRowContext", query, args...)

	return d.DB.QueryRowContext(ctx, query, args...)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer d.sendOperationStats(ctx, time.Now(), "ExecContext", query, args...)

	return d.DB.ExecContext(ctx, query, args...)
}
