package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// unusedAddr returns a loopback address nothing is listening on.
func unusedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestModeFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: ModeStandalone},
		{input: "standalone", want: ModeStandalone},
		{input: "Sentinel", want: ModeSentinel},
		{input: " cluster ", want: ModeCluster},
		{input: "replica", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ModeFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
			assert.NotEqual(t, "unknown", mode.String())
		})
	}
}

func TestRedisConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RedisConfig
		wantErr error
	}{
		{
			name:   "standalone",
			config: RedisConfig{Servers: []string{"localhost:6379"}},
		},
		{
			name:    "no servers",
			config:  RedisConfig{},
			wantErr: ErrNoServers,
		},
		{
			name:    "sentinel without master name",
			config:  RedisConfig{Mode: ModeSentinel, Servers: []string{"localhost:26379"}},
			wantErr: ErrMissingMasterName,
		},
		{
			name:   "sentinel with master name",
			config: RedisConfig{Mode: ModeSentinel, Servers: []string{"localhost:26379"}, MasterName: "mymaster"},
		},
		{
			name:    "cluster with database",
			config:  RedisConfig{Mode: ModeCluster, Servers: []string{"localhost:7000"}, Database: 2},
			wantErr: ErrClusterDatabase,
		},
		{
			name:    "unknown mode",
			config:  RedisConfig{Mode: Mode(7), Servers: []string{"localhost:6379"}},
			wantErr: ErrInvalidMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStandaloneOptions(t *testing.T) {
	config := &RedisConfig{
		Servers:    []string{"10.0.0.1:6379", "10.0.0.2:6379"},
		Password:   "secret",
		Database:   3,
		TLSEnabled: true,
	}

	opts := standaloneOptions(config)
	assert.Equal(t, "10.0.0.1:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, DefaultPoolSize, opts.PoolSize)
	assert.Equal(t, DefaultPoolTimeout, opts.PoolTimeout)
	assert.Equal(t, DefaultTimeout, opts.ReadTimeout)
	require.NotNil(t, opts.TLSConfig)
}

func TestSentinelOptions(t *testing.T) {
	config := &RedisConfig{
		Mode:       ModeSentinel,
		Servers:    []string{"10.0.0.1:26379", "10.0.0.2:26379"},
		MasterName: "mymaster",
		Password:   "secret",
		PoolSize:   20,
	}

	opts := sentinelOptions(config)
	assert.Equal(t, "mymaster", opts.MasterName)
	assert.Equal(t, []string{"10.0.0.1:26379", "10.0.0.2:26379"}, opts.SentinelAddrs)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, "secret", opts.SentinelPassword)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Nil(t, opts.TLSConfig)
}

func TestClusterOptions(t *testing.T) {
	config := &RedisConfig{
		Mode:                   ModeCluster,
		Servers:                []string{"redis-node:7000", "redis-node:7001"},
		DevClusterHostOverride: true,
	}

	opts := clusterOptions(config)
	assert.Equal(t, []string{"redis-node:7000", "redis-node:7001"}, opts.Addrs)
	require.NotNil(t, opts.NewClient)

	nodeClient := opts.NewClient(&r.Options{Addr: "172.18.0.5:7002"})
	defer nodeClient.Close()
	assert.Equal(t, "redis-node:7002", nodeClient.Options().Addr)
}

func TestEndpointList_Advance(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEndpointList([]string{"a:1", "b:2", "c:3"}, zap.New(core))

	assert.Equal(t, "a:1", e.Current())
	assert.Equal(t, "b:2", e.Advance("a:1"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "redis endpoint unreachable, switching", entry.Message)
	assert.Equal(t, map[string]interface{}{"failed": "a:1", "next": "b:2"}, entry.ContextMap())

	// A stale failure report does not move the cursor again.
	assert.Equal(t, "b:2", e.Advance("a:1"))
	assert.Equal(t, 1, logs.Len())

	assert.Equal(t, "c:3", e.Advance("b:2"))

	// Exhausting the list resets to the first endpoint.
	assert.Equal(t, "a:1", e.Advance("c:3"))
	assert.Equal(t, "a:1", e.Current())
	assert.Equal(t, 3, logs.Len())
}

func TestEndpointList_SingleEndpointDoesNotLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := newEndpointList([]string{"a:1"}, zap.New(core))

	assert.Equal(t, "a:1", e.Advance("a:1"))
	assert.Equal(t, "a:1", e.Current())
	assert.Zero(t, logs.Len())
}

// flakyDialer fails the nth dial to addr and dials normally otherwise.
func flakyDialer(addr string, n int32) func(ctx context.Context, network, addr string) (net.Conn, error) {
	var dials atomic.Int32
	return func(ctx context.Context, network, target string) (net.Conn, error) {
		if target == addr && dials.Add(1) == n {
			return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
		}
		var d net.Dialer
		return d.DialContext(ctx, network, target)
	}
}

func TestFailoverClient_AllTrafficFollowsSwitch(t *testing.T) {
	ctx := context.Background()
	primary := miniredis.RunT(t)
	backup := miniredis.RunT(t)

	client := NewFailoverClient(&r.Options{
		Dialer: flakyDialer(primary.Addr(), 2),
	}, []string{primary.Addr(), backup.Addr()}, zaptest.NewLogger(t))
	defer client.Close()

	require.NoError(t, client.Ping(ctx).Err())

	// Hold the only pooled connection so the next command has to dial.
	pinned := client.Conn()
	require.NoError(t, pinned.Ping(ctx).Err())

	// The second dial to the healthy primary fails and moves the cursor.
	require.NoError(t, client.Ping(ctx).Err())
	assert.Equal(t, backup.Addr(), client.Endpoint())

	// The primary connection goes back to the pool but must not be reused.
	require.NoError(t, pinned.Close())

	const writes = 200
	var wg sync.WaitGroup
	errs := make(chan error, writes)
	for i := 0; i < writes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- client.Set(ctx, fmt.Sprintf("key:%d", i), i, 0).Err()
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Empty(t, primary.Keys())
	assert.Len(t, backup.Keys(), writes)
}

func TestEndpointConn_RefusesWritesOnceStale(t *testing.T) {
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	e := newEndpointList([]string{"a:1", "b:2"}, zap.NewNop())
	conn := wrapEndpointConn(server, "a:1", e)

	e.Advance("a:1")

	_, err := conn.Write([]byte("PING\r\n"))
	var stale *staleEndpointError
	require.ErrorAs(t, err, &stale)
	assert.False(t, stale.Timeout())
}

func TestNewClient_Standalone(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := NewClient(ctx, &RedisConfig{Servers: []string{mr.Addr()}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(ctx, "key", "value", 0).Err())
	got, err := mr.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestNewClient_StandaloneSkipsDeadEndpoint(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	dead := unusedAddr(t)

	client, err := NewClient(ctx, &RedisConfig{Servers: []string{dead, mr.Addr()}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	failover, ok := client.(*FailoverClient)
	require.True(t, ok)
	assert.Equal(t, mr.Addr(), failover.Endpoint())
}

func TestNewClient_StandaloneSwitchesWhenEndpointGoesDown(t *testing.T) {
	ctx := context.Background()
	primary := miniredis.RunT(t)
	backup := miniredis.RunT(t)

	client, err := NewClient(ctx, &RedisConfig{
		Servers:     []string{primary.Addr(), backup.Addr()},
		DialTimeout: 500 * time.Millisecond,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(ctx, "key", "primary", 0).Err())
	primary.Close()

	// Data is not replicated between the two servers, so the backup reports a miss.
	err = client.Get(ctx, "key").Err()
	assert.ErrorIs(t, err, Nil)
	assert.Equal(t, backup.Addr(), client.(*FailoverClient).Endpoint())

	require.NoError(t, client.Set(ctx, "key", "backup", 0).Err())
	got, err := backup.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "backup", got)
}

func TestNewClient_StandaloneAllEndpointsDown(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, &RedisConfig{
		Servers:     []string{unusedAddr(t)},
		DialTimeout: 200 * time.Millisecond,
	}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis standalone connection failed")
}

func TestNewClient_Cluster(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := NewClient(ctx, &RedisConfig{Mode: ModeCluster, Servers: []string{mr.Addr()}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	_, ok := client.(*r.ClusterClient)
	require.True(t, ok)

	require.NoError(t, client.Set(ctx, "key", "value", 0).Err())
	got, err := client.Get(ctx, "key").Result()
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(context.Background(), &RedisConfig{Mode: ModeSentinel, Servers: []string{"localhost:26379"}}, nil)
	assert.ErrorIs(t, err, ErrMissingMasterName)
}

func TestNew_ReturnsSharedClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	config := &RedisConfig{Servers: []string{mr.Addr()}}

	first, err := New(ctx, config, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, first)

	// Later calls ignore their arguments and share the first client.
	second, err := New(ctx, &RedisConfig{Mode: ModeCluster}, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, second.Ping(ctx).Err())
}
