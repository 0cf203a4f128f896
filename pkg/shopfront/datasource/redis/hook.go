package redis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueryLog is the log entry written for every Redis command.
type QueryLog struct {
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Args     any    `json:"args,omitempty"`
}

func (ql *QueryLog) PrettyPrint(writer io.Writer) {
	if ql.Query == "pipeline" {
		fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-6s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
			"", "REDIS", ql.Duration, ql.String())

		return
	}

	fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-6s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %v\n",
		ql.Query, "REDIS", ql.Duration, ql.String())
}

// String renders the command as typed. Pipeline entries carry only the command count, so the name leads.
func (ql *QueryLog) String() string {
	args, ok := ql.Args.([]any)
	if !ok {
		args = []any{ql.Args}
	}

	parts := make([]string, 0, len(args)+1)

	if ql.Query == "pipeline" {
		parts = append(parts, ql.Query)
	}

	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}

	return strings.Join(parts, " ")
}

func (r *Redis) logQuery(ctx context.Context, start time.Time, query string, args ...any) {
	duration := time.Since(start)

	r.logger.Debug(&QueryLog{
		Query:    query,
		Duration: duration.Microseconds(),
		Args:     args,
	})

	r.metrics.RecordHistogram(ctx, "app_redis_stats", float64(duration.Microseconds())/1e3,
		"hostname", r.config.HostName, "type", query)
}

func (*Redis) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (r *Redis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		r.logQuery(ctx, start, cmd.Name(), cmd.Args()...)

		return err
	}
}

func (r *Redis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		r.logQuery(ctx, start, "pipeline", len(cmds))

		return err
	}
}
