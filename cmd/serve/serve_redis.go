package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sig-0/fxpoints/cmd/env"
	"github.com/sig-0/fxpoints/storage/redis"
)

type serveRedisCfg struct {
	rootCfg *serveCfg
}

// newServeRedisCmd creates the serve redis command
func newServeRedisCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveRedisCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("redis", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "redis",
		ShortUsage: "serve redis [flags]",
		LongHelp:   "Serves the fxpoints backend, using a Redis quote archive",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveRedisCfg) exec(ctx context.Context, _ []string) error {
	// Read the server configuration, if any
	if err := c.rootCfg.loadConfig(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	rawURL := os.Getenv(env.Prefix + env.RedisURLSuffix)
	if rawURL == "" {
		return fmt.Errorf("missing %s", env.Prefix+env.RedisURLSuffix)
	}

	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env.Prefix+env.RedisURLSuffix, err)
	}

	client := goredis.NewClient(opts)

	defer func() {
		if err = client.Close(); err != nil {
			logger.Error(
				"unable to gracefully close Redis connection",
				"err", err,
			)
		}
	}()

	// Check Redis reachability
	pingCtx, cancelPing := context.WithTimeout(ctx, time.Second*5)
	defer cancelPing()

	if err = client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("unable to reach Redis (ping): %w", err)
	}

	logger.Info("Redis ping success")

	return c.rootCfg.run(ctx, redis.NewStorage(client), logger)
}
