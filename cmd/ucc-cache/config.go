package main

import (
	"fmt"

	"github.com/szhtp/ucc-cache/internal/config"
	"github.com/urfave/cli/v3"
)

// loadConfig parses the config file and env vars, applies the global flag
// overrides and validates the result.
func loadConfig(c *cli.Command, osInterface config.OSInterface) (*config.Config, error) {
	cfg, err := config.ParseWithoutValidation(config.Flags{
		Config: c.String("config"),
	}, osInterface)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyOverrides(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(c *cli.Command, cfg *config.Config) {
	if mode := c.String("redis-mode"); mode != "" {
		cfg.Redis.Mode = mode
	}
	if servers := c.StringSlice("redis-servers"); len(servers) > 0 {
		cfg.Redis.Servers = servers
	}
	if ports := c.StringSlice("redis-ports"); len(ports) > 0 {
		cfg.Redis.Ports = ports
	}
	if masterName := c.String("redis-master-name"); masterName != "" {
		cfg.Redis.MasterName = masterName
	}
	if password := c.String("redis-password"); password != "" {
		cfg.Redis.Password = password
	}
	if c.IsSet("redis-database") {
		cfg.Redis.Database = int(c.Int("redis-database"))
	}
	if c.IsSet("prefix") {
		cfg.Prefix = c.String("prefix")
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
}

func printConfig(c *cli.Command) error {
	cfg, err := loadConfig(c, config.DefaultOS())
	if err != nil {
		return err
	}

	w := c.Root().Writer
	path := cfg.ConfigFilePath()
	if path == "" {
		path = "(none)"
	}
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Config File: %s\n", path)
	fmt.Fprintf(w, "  Log Level: %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "  Prefix: %q\n", cfg.Prefix)
	fmt.Fprintf(w, "  Redis Mode: %s\n", cfg.Redis.Mode)
	fmt.Fprintf(w, "  Redis Servers: %v\n", cfg.Redis.Addrs())
	if cfg.Redis.MasterName != "" {
		fmt.Fprintf(w, "  Redis Master Name: %s\n", cfg.Redis.MasterName)
	}
	fmt.Fprintf(w, "  Redis Database: %d\n", cfg.Redis.Database)
	fmt.Fprintf(w, "  Redis TLS Enabled: %v\n", cfg.Redis.TLSEnabled)
	if cfg.Redis.Password != "" {
		fmt.Fprintf(w, "  Redis Password: ****** (set)\n")
	} else {
		fmt.Fprintf(w, "  Redis Password: (not set)\n")
	}
	return nil
}
