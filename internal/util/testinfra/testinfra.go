package testinfra

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/viper"
	"github.com/szhtp/ucc-cache/internal/util/testutil"
)

var (
	suiteCounter int64
	suiteCleanup sync.Once
	cfgSync      sync.Once
	cfg          *Config
)

type Config struct {
	TestInfra   bool
	RedisURL    string
	ValkeyURL   string
	cleanupFns  []func()
	cleanupLock sync.Mutex
}

func initConfig() {
	v := viper.New()
	v.AutomaticEnv()

	// Allow override via environment variable
	configFile := os.Getenv("TEST_CONFIG_FILE")
	if configFile == "" {
		configFile = ".env.test"
	}

	if projectRoot, err := findProjectRoot(configFile); err == nil {
		v.SetConfigFile(filepath.Join(projectRoot, configFile))
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			panic(err)
		}
	}

	cfg = &Config{TestInfra: v.GetBool("TESTINFRA")}

	// With TESTINFRA set the servers are managed outside the test run;
	// otherwise containers are started on demand.
	if cfg.TestInfra {
		cfg.RedisURL = v.GetString("TEST_REDIS_URL")
		cfg.ValkeyURL = v.GetString("TEST_VALKEY_URL")
	}
}

func ReadConfig() *Config {
	cfgSync.Do(initConfig)
	return cfg
}

func (c *Config) addCleanup(fn func()) {
	c.cleanupLock.Lock()
	defer c.cleanupLock.Unlock()
	c.cleanupFns = append(c.cleanupFns, fn)
}

func Start(t *testing.T) func() {
	testutil.CheckIntegrationTest(t)
	atomic.AddInt64(&suiteCounter, 1)
	return func() {
		if atomic.AddInt64(&suiteCounter, -1) == 0 {
			suiteCleanup.Do(func() {
				if cfg == nil {
					return
				}
				cfg.cleanupLock.Lock()
				defer cfg.cleanupLock.Unlock()
				for _, fn := range cfg.cleanupFns {
					if fn != nil {
						fn()
					}
				}
			})
		}
	}
}

func findProjectRoot(configFile string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Traverse up the directory tree until the project root is found
	for {
		if _, err := os.Stat(filepath.Join(dir, configFile)); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			break
		}
		dir = parentDir
	}

	return "", os.ErrNotExist
}
