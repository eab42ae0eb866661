package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/szhtp/ucc-cache/internal/config"
	"github.com/szhtp/ucc-cache/internal/redis"
)

type mockOS struct {
	files   map[string][]byte
	envVars map[string]string
}

func (m *mockOS) Getenv(key string) string {
	return m.envVars[key]
}

func (m *mockOS) Environ() []string {
	environ := make([]string, 0, len(m.envVars))
	for k, v := range m.envVars {
		environ = append(environ, k+"="+v)
	}
	return environ
}

func (m *mockOS) Stat(name string) (os.FileInfo, error) {
	if _, ok := m.files[name]; ok {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockOS) ReadFile(filename string) ([]byte, error) {
	if data, ok := m.files[filename]; ok {
		return data, nil
	}
	return nil, os.ErrNotExist
}

func TestDefaultValues(t *testing.T) {
	cfg, err := config.ParseWithOS(config.Flags{}, &mockOS{
		files:   map[string][]byte{},
		envVars: map[string]string{},
	})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "ucc_", cfg.Prefix)
	assert.Equal(t, "standalone", cfg.Redis.Mode)
	assert.Equal(t, []string{"127.0.0.1:6379"}, cfg.Redis.Addrs())
	assert.Equal(t, redis.DefaultPoolSize, cfg.Redis.PoolSize)
	assert.Equal(t, 3000, cfg.Redis.TimeoutMs)
	assert.Empty(t, cfg.ConfigFilePath())
	assert.Nil(t, cfg.OpenTelemetry.ToConfig())
}

func TestConfigPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string][]byte
		envVars     map[string]string
		flags       config.Flags
		wantPrefix  string
		wantMode    string
		wantServers []string
		wantDB      int
		wantPath    string
	}{
		{
			name: "yaml overrides defaults",
			files: map[string][]byte{
				"config.yaml": []byte(`
prefix: app_
redis:
  mode: cluster
  servers: ["10.0.0.1", "10.0.0.2"]
  ports: ["7000", "7001"]
`),
			},
			envVars:     map[string]string{"CONFIG": "config.yaml"},
			wantPrefix:  "app_",
			wantMode:    "cluster",
			wantServers: []string{"10.0.0.1:7000", "10.0.0.2:7001"},
			wantPath:    "config.yaml",
		},
		{
			name: "env overrides yaml",
			files: map[string][]byte{
				"config.yaml": []byte(`
prefix: app_
redis:
  database: 2
`),
			},
			envVars: map[string]string{
				"CONFIG":         "config.yaml",
				"CACHE_PREFIX":   "env_",
				"REDIS_DATABASE": "5",
			},
			wantPrefix:  "env_",
			wantMode:    "standalone",
			wantServers: []string{"127.0.0.1:6379"},
			wantDB:      5,
			wantPath:    "config.yaml",
		},
		{
			name: "flag path",
			files: map[string][]byte{
				"custom.yaml": []byte(`prefix: flag_`),
			},
			envVars:     map[string]string{},
			flags:       config.Flags{Config: "custom.yaml"},
			wantPrefix:  "flag_",
			wantMode:    "standalone",
			wantServers: []string{"127.0.0.1:6379"},
			wantPath:    "custom.yaml",
		},
		{
			name: "default location",
			files: map[string][]byte{
				".ucc-cache.yaml": []byte(`prefix: found_`),
			},
			envVars:     map[string]string{},
			wantPrefix:  "found_",
			wantMode:    "standalone",
			wantServers: []string{"127.0.0.1:6379"},
			wantPath:    ".ucc-cache.yaml",
		},
		{
			name: "dotenv file",
			files: map[string][]byte{
				".env": []byte("CACHE_PREFIX=dot_\nREDIS_SERVERS=a:1,b:2\nREDIS_MODE=sentinel\nREDIS_MASTER_NAME=mymaster\n"),
			},
			envVars:     map[string]string{},
			wantPrefix:  "dot_",
			wantMode:    "sentinel",
			wantServers: []string{"a:1", "b:2"},
			wantPath:    ".env",
		},
		{
			name:  "env server list",
			files: map[string][]byte{},
			envVars: map[string]string{
				"REDIS_SERVERS": "r1,r2,r3",
				"REDIS_PORTS":   "6380,6381",
			},
			wantPrefix:  "ucc_",
			wantMode:    "standalone",
			wantServers: []string{"r1:6380", "r2:6381", "r3:6381"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.ParseWithOS(tt.flags, &mockOS{
				files:   tt.files,
				envVars: tt.envVars,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, cfg.Prefix)
			assert.Equal(t, tt.wantMode, cfg.Redis.Mode)
			assert.Equal(t, tt.wantServers, cfg.Redis.Addrs())
			assert.Equal(t, tt.wantDB, cfg.Redis.Database)
			assert.Equal(t, tt.wantPath, cfg.ConfigFilePath())
		})
	}
}

func TestConflictingConfigPaths(t *testing.T) {
	_, err := config.ParseWithOS(config.Flags{Config: "a.yaml"}, &mockOS{
		files:   map[string][]byte{"a.yaml": nil, "b.yaml": nil},
		envVars: map[string]string{"CONFIG": "b.yaml"},
	})
	assert.ErrorContains(t, err, "conflicting config paths")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := config.ParseWithOS(config.Flags{Config: "missing.yaml"}, &mockOS{
		files:   map[string][]byte{},
		envVars: map[string]string{},
	})
	assert.ErrorContains(t, err, "error reading config file")
}

func TestRedisConfig_ToConfig(t *testing.T) {
	c := &config.RedisConfig{
		Mode:          "Sentinel",
		Servers:       []string{"s1", "s2:26380"},
		Ports:         []string{"26379"},
		MasterName:    "mymaster",
		Password:      "secret",
		Database:      1,
		PoolTimeoutMs: 2000,
		TimeoutMs:     500,
	}

	rc, err := c.ToConfig()
	require.NoError(t, err)
	assert.Equal(t, redis.ModeSentinel, rc.Mode)
	assert.Equal(t, []string{"s1:26379", "s2:26380"}, rc.Servers)
	assert.Equal(t, "mymaster", rc.MasterName)
	assert.Equal(t, "secret", rc.Password)
	assert.Equal(t, 1, rc.Database)
	assert.Equal(t, 2*time.Second, rc.PoolTimeout)
	assert.Equal(t, rc.ReadTimeout, rc.DialTimeout)
	assert.Equal(t, rc.WriteTimeout, rc.DialTimeout)

	_, err = (&config.RedisConfig{Mode: "ring"}).ToConfig()
	assert.ErrorIs(t, err, config.ErrInvalidRedisMode)
	assert.ErrorIs(t, err, redis.ErrInvalidMode)
}

func TestLogConfigurationSummary_MasksPassword(t *testing.T) {
	cfg, err := config.ParseWithOS(config.Flags{}, &mockOS{
		files:   map[string][]byte{},
		envVars: map[string]string{"REDIS_PASSWORD": "hunter2"},
	})
	require.NoError(t, err)

	for _, f := range cfg.LogConfigurationSummary() {
		assert.NotEqual(t, "hunter2", f.String, "field %s leaks the password", f.Key)
		if f.Key == "redis_password_configured" {
			assert.Equal(t, int64(1), f.Integer)
		}
	}
}
