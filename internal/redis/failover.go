package redis

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FailoverClient is a standalone client that walks an ordered endpoint list.
//
// Connections are always dialed against the current endpoint. A failed dial
// moves the cursor to the next endpoint, and past the last one it wraps back
// to the first. Every connection remembers the endpoint it was dialed to;
// once the cursor moves, connections to the previous endpoint fail the pool
// health check and refuse writes, so go-redis discards them and retries on a
// fresh connection to the new endpoint. All traffic follows the cursor.
type FailoverClient struct {
	*r.Client
	endpoints *endpointList
}

// NewFailoverClient builds the pool for the first endpoint in servers. The
// Addr field of opts is ignored.
func NewFailoverClient(opts *r.Options, servers []string, logger *zap.Logger) *FailoverClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoints := newEndpointList(servers, logger)

	o := *opts
	o.Addr = endpoints.Current()
	client := r.NewClient(&o)
	client.AddHook(&failoverHook{endpoints: endpoints})

	return &FailoverClient{
		Client:    client,
		endpoints: endpoints,
	}
}

// Endpoint returns the address new connections are dialed against.
func (c *FailoverClient) Endpoint() string {
	return c.endpoints.Current()
}

type endpointList struct {
	mu     sync.Mutex
	addrs  []string
	index  atomic.Int32
	logger *zap.Logger
}

func newEndpointList(addrs []string, logger *zap.Logger) *endpointList {
	return &endpointList{
		addrs:  append([]string(nil), addrs...),
		logger: logger,
	}
}

func (e *endpointList) Current() string {
	return e.addrs[e.index.Load()]
}

// Advance moves past failed if it is still the current endpoint. Concurrent
// dials that fail against the same endpoint only move the cursor once.
func (e *endpointList) Advance(failed string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := int(e.index.Load())
	if e.addrs[index] != failed {
		return e.addrs[index]
	}
	if index < len(e.addrs)-1 {
		index++
	} else {
		index = 0
	}
	e.index.Store(int32(index))

	next := e.addrs[index]
	if next != failed {
		e.logger.Warn("redis endpoint unreachable, switching",
			zap.String("failed", failed),
			zap.String("next", next),
		)
	}
	return next
}

// staleEndpointError is returned by connections whose endpoint is no longer
// current. It reports itself as a non-timeout net error so go-redis drops
// the connection and retries the command.
type staleEndpointError struct {
	addr string
}

func (e *staleEndpointError) Error() string {
	return "redis: connection to " + e.addr + " belongs to a previous endpoint"
}

func (e *staleEndpointError) Timeout() bool   { return false }
func (e *staleEndpointError) Temporary() bool { return true }

// endpointConn pins a connection to the endpoint it was dialed against.
// Replies to commands already written are still read; new writes are
// refused once the endpoint is stale.
type endpointConn struct {
	net.Conn
	addr      string
	endpoints *endpointList
}

func (c *endpointConn) stale() bool {
	return c.endpoints.Current() != c.addr
}

func (c *endpointConn) Write(b []byte) (int, error) {
	if c.stale() {
		return 0, &staleEndpointError{addr: c.addr}
	}
	return c.Conn.Write(b)
}

// endpointSyscallConn is used for plain TCP connections. go-redis probes
// idle connections through syscall.Conn before reuse, and a stale endpoint
// fails that probe so the pool closes the connection instead of handing it
// out.
type endpointSyscallConn struct {
	*endpointConn
	raw syscall.Conn
}

func (c *endpointSyscallConn) SyscallConn() (syscall.RawConn, error) {
	if c.stale() {
		return nil, &staleEndpointError{addr: c.addr}
	}
	return c.raw.SyscallConn()
}

func wrapEndpointConn(conn net.Conn, addr string, endpoints *endpointList) net.Conn {
	ec := &endpointConn{Conn: conn, addr: addr, endpoints: endpoints}
	if raw, ok := conn.(syscall.Conn); ok {
		return &endpointSyscallConn{endpointConn: ec, raw: raw}
	}
	return ec
}

type failoverHook struct {
	endpoints *endpointList
}

var _ r.Hook = (*failoverHook)(nil)

func (h *failoverHook) DialHook(next r.DialHook) r.DialHook {
	return func(ctx context.Context, network, _ string) (net.Conn, error) {
		addr := h.endpoints.Current()
		conn, err := next(ctx, network, addr)
		if err != nil {
			if ctx.Err() == nil {
				h.endpoints.Advance(addr)
			}
			return nil, err
		}
		return wrapEndpointConn(conn, addr, h.endpoints), nil
	}
}

func (h *failoverHook) ProcessHook(next r.ProcessHook) r.ProcessHook {
	return next
}

func (h *failoverHook) ProcessPipelineHook(next r.ProcessPipelineHook) r.ProcessPipelineHook {
	return next
}
