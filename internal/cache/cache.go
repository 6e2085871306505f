// Package cache flushes the storefront cache after configuration changes.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Flusher clears the storefront cache.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Nop is a Flusher that does nothing.
type Nop struct{}

// Flush implements Flusher.
func (Nop) Flush(context.Context) error { return nil }

// CommandFlusher runs a shell-free command such as "bin/magento cache:flush"
// in the storefront's working directory.
type CommandFlusher struct {
	Args   []string
	Dir    string
	Logger *slog.Logger
}

// NewCommandFlusher splits a command line on whitespace.
func NewCommandFlusher(command, dir string, logger *slog.Logger) (*CommandFlusher, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("cache command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandFlusher{Args: args, Dir: dir, Logger: logger}, nil
}

// Flush implements Flusher.
func (f *CommandFlusher) Flush(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, f.Args[0], f.Args[1:]...)
	cmd.Dir = f.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	f.Logger.Debug("flushing cache", "command", strings.Join(f.Args, " "), "dir", f.Dir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cache flush %q failed: %w: %s", strings.Join(f.Args, " "), err, strings.TrimSpace(out.String()))
	}
	return nil
}

// flushClient is the subset of redis.Cmdable used by RedisFlusher.
type flushClient interface {
	FlushDB(ctx context.Context) *redis.StatusCmd
}

// RedisFlusher flushes the Redis database backing the storefront cache.
type RedisFlusher struct {
	client flushClient
	logger *slog.Logger
}

// RedisOptions configures NewRedisFlusher.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisFlusher connects to Redis and verifies the connection.
func NewRedisFlusher(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisFlusher, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return newRedisFlusher(client, logger), nil
}

func newRedisFlusher(client flushClient, logger *slog.Logger) *RedisFlusher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisFlusher{client: client, logger: logger}
}

// Flush implements Flusher.
func (f *RedisFlusher) Flush(ctx context.Context) error {
	f.logger.Debug("flushing redis cache")
	if err := f.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("redis flushdb: %w", err)
	}
	return nil
}

// Close releases the underlying connection when the client supports it.
func (f *RedisFlusher) Close() error {
	if c, ok := f.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
