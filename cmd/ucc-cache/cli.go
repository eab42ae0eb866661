package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// NewCommand creates and configures the CLI command
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:    "ucc-cache",
		Usage:   "Inspect and edit a prefixed Redis cache",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("CONFIG"),
			},
			&cli.StringFlag{
				Name:    "redis-mode",
				Usage:   "Redis topology: standalone, sentinel or cluster (overrides config)",
				Sources: cli.EnvVars("REDIS_MODE"),
			},
			&cli.StringSliceFlag{
				Name:    "redis-servers",
				Usage:   "Redis servers as host or host:port, in failover order (overrides config)",
				Sources: cli.EnvVars("REDIS_SERVERS"),
			},
			&cli.StringSliceFlag{
				Name:    "redis-ports",
				Usage:   "Ports paired with bare hosts in --redis-servers (overrides config)",
				Sources: cli.EnvVars("REDIS_PORTS"),
			},
			&cli.StringFlag{
				Name:    "redis-master-name",
				Usage:   "Sentinel master name (overrides config)",
				Sources: cli.EnvVars("REDIS_MASTER_NAME"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password (overrides config)",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "redis-database",
				Usage:   "Redis database number (overrides config)",
				Sources: cli.EnvVars("REDIS_DATABASE"),
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Key prefix (overrides config)",
				Sources: cli.EnvVars("CACHE_PREFIX"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error (overrides config)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ping",
				Usage:  "Check the connection to Redis",
				Action: withCache(pingAction),
			},
			{
				Name:      "get",
				Usage:     "Print the value stored at key",
				ArgsUsage: "<key>",
				Action:    withCache(getAction),
			},
			{
				Name:      "set",
				Usage:     "Store a value at key",
				ArgsUsage: "<key> <value>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Expire the key after this duration (0 keeps it forever)",
					},
				},
				Action: withCache(setAction),
			},
			{
				Name:      "setnx",
				Usage:     "Store a value only if key does not exist",
				ArgsUsage: "<key> <value>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:     "ttl",
						Usage:    "Expire the key after this duration",
						Required: true,
					},
				},
				Action: withCache(setNXAction),
			},
			{
				Name:      "getset",
				Usage:     "Replace the value of an existing key and print the old value",
				ArgsUsage: "<key> <value>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Refresh the expiry to this duration (0 leaves the key persistent)",
					},
				},
				Action: withCache(getSetAction),
			},
			{
				Name:      "append",
				Usage:     "Append to the value at key and print the new length",
				ArgsUsage: "<key> <value>",
				Action:    withCache(appendAction),
			},
			{
				Name:      "del",
				Usage:     "Delete key",
				ArgsUsage: "<key>",
				Action:    withCache(deleteAction),
			},
			{
				Name:      "incr",
				Usage:     "Increment the counter at key",
				ArgsUsage: "<key>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "expire",
						Usage: "Set the counter expiry in the same transaction",
					},
				},
				Action: withCache(incrAction),
			},
			{
				Name:      "expire",
				Usage:     "Set the expiry of key",
				ArgsUsage: "<key> <duration>",
				Action:    withCache(expireAction),
			},
			{
				Name:      "ttl",
				Usage:     "Print the remaining time to live of key",
				ArgsUsage: "<key>",
				Action:    withCache(ttlAction),
			},
			{
				Name:      "exists",
				Usage:     "Report whether key exists",
				ArgsUsage: "<key>",
				Action:    withCache(existsAction),
			},
			{
				Name:  "config",
				Usage: "Print the resolved configuration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return printConfig(c)
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			// Default action: show help
			return cli.ShowAppHelp(c)
		},
	}
}
