package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/frontier/pkg/config"
)

// ErrDisabled REDIS_ENABLED=false 또는 연결 실패로 캐시 없이 동작 중
var ErrDisabled = errors.New("redis disabled")

const (
	// connectTimeout 시작 시 Ping 상한
	connectTimeout = 3 * time.Second

	// 캐시 I/O 상한 (엔진 요청 경로)
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

// Client is the optional closes/risk-free cache connection
// ⭐ SSOT: Redis 연결은 여기서만 관리
// zero value는 비활성 클라이언트 (모든 캐시 연산 no-op)
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects to Redis and pings it within connectTimeout
// REDIS_ENABLED=false 이면 비활성 클라이언트 반환
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	addr := net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}

	return &Client{rdb: rdb, addr: addr}, nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether a live connection backs the cache
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Addr returns host:port ("" when disabled)
func (c *Client) Addr() string {
	return c.addr
}

// Redis returns the underlying client (cache.go 전용)
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// HealthStatus mirrors database.HealthStatus for the cache
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	TotalConns   uint32        `json:"total_conns"`
	IdleConns    uint32        `json:"idle_conns"`
	Hits         uint32        `json:"hits"`
	Misses       uint32        `json:"misses"`
	Timeouts     uint32        `json:"timeouts"`
}

// HealthCheck pings Redis and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{}
	if !c.Enabled() {
		status.Error = ErrDisabled.Error()
		return status, ErrDisabled
	}

	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)
	status.Healthy = true

	if stats := c.rdb.PoolStats(); stats != nil {
		status.TotalConns = stats.TotalConns
		status.IdleConns = stats.IdleConns
		status.Hits = stats.Hits
		status.Misses = stats.Misses
		status.Timeouts = stats.Timeouts
	}
	return status, nil
}
