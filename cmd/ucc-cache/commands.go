package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/szhtp/ucc-cache/internal/cachestore"
	"github.com/szhtp/ucc-cache/internal/config"
	"github.com/szhtp/ucc-cache/internal/logging"
	"github.com/szhtp/ucc-cache/internal/otel"
	"github.com/szhtp/ucc-cache/internal/redis"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

type cacheAction func(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error

// withCache loads config, connects to Redis, runs fn and cleans up
func withCache(fn cacheAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) (err error) {
		cfg, err := loadConfig(c, config.DefaultOS())
		if err != nil {
			return err
		}

		logger, err := logging.NewLogger(
			logging.WithLogLevel(cfg.LogLevel),
			logging.WithEncoding(cfg.LogFormat),
		)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()
		logger.Debug("configuration loaded", cfg.LogConfigurationSummary()...)

		if otelConfig := cfg.OpenTelemetry.ToConfig(); otelConfig != nil {
			otelShutdown, setupErr := otel.SetupOTelSDK(ctx, otelConfig)
			if setupErr != nil {
				return fmt.Errorf("failed to set up opentelemetry: %w", setupErr)
			}
			// Flush spans and metrics before exiting.
			defer func() {
				err = errors.Join(err, otelShutdown(context.Background()))
			}()
		}

		redisConfig, err := cfg.Redis.ToConfig()
		if err != nil {
			return err
		}
		client, err := redis.NewClient(ctx, redisConfig, logger.Logger.Logger)
		if err != nil {
			return err
		}
		if err := redis.InstrumentOpenTelemetry(client); err != nil {
			logger.Warn("failed to instrument redis client", zap.Error(err))
		}

		cache := cachestore.New(cachestore.Config{
			RedisClient: client,
			Prefix:      cfg.Prefix,
			Logger:      logger,
		})
		defer cache.Close()

		return fn(ctx, c, cache, c.Root().Writer)
	}
}

func requireArgs(c *cli.Command, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s expects %d argument(s), got %d (usage: %s %s)", c.Name, n, c.NArg(), c.Name, c.ArgsUsage)
	}
	return nil
}

func pingAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := cache.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "PONG")
	return nil
}

func getAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	value, err := cache.GetString(ctx, c.Args().Get(0))
	if errors.Is(err, cachestore.ErrNotFound) {
		fmt.Fprintln(w, "(nil)")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, value)
	return nil
}

func setAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	key, value := c.Args().Get(0), c.Args().Get(1)
	if ttl := c.Duration("ttl"); ttl > 0 {
		ok, err := cache.SetStringEx(ctx, key, value, ttl)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("set %q was not acknowledged", key)
		}
	} else if err := cache.SetString(ctx, key, value); err != nil {
		return err
	}
	fmt.Fprintln(w, "OK")
	return nil
}

func setNXAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	ok, err := cache.SetNX(ctx, c.Args().Get(0), c.Args().Get(1), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, boolToInt(ok))
	return nil
}

func getSetAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	old, err := cache.GetSet(ctx, c.Args().Get(0), c.Args().Get(1), c.Duration("ttl"))
	if errors.Is(err, cachestore.ErrNotFound) {
		fmt.Fprintln(w, "(nil)")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, old)
	return nil
}

func appendAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	n, err := cache.Append(ctx, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, n)
	return nil
}

func deleteAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	n, err := cache.Delete(ctx, c.Args().Get(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, n)
	return nil
}

func incrAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	key := c.Args().Get(0)

	var (
		n   int64
		err error
	)
	if expire := c.Duration("expire"); expire > 0 {
		n, err = cache.IncrExpire(ctx, key, expire)
	} else {
		n, err = cache.Incr(ctx, key)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, n)
	return nil
}

func expireAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	ttl, err := time.ParseDuration(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", c.Args().Get(1), err)
	}
	ok, err := cache.Expire(ctx, c.Args().Get(0), ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, boolToInt(ok))
	return nil
}

func ttlAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	ttl, err := cache.TTL(ctx, c.Args().Get(0))
	switch {
	case errors.Is(err, cachestore.ErrNotFound):
		fmt.Fprintln(w, "(nil)")
	case err != nil:
		return err
	case ttl == cachestore.NoExpiry:
		fmt.Fprintln(w, "no expiry")
	default:
		fmt.Fprintln(w, ttl)
	}
	return nil
}

func existsAction(ctx context.Context, c *cli.Command, cache cachestore.Cache, w io.Writer) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	ok, err := cache.Exists(ctx, c.Args().Get(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, boolToInt(ok))
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
