package config

// This file defines the Redis client constructor. Redis backs the user
// cache and the rate limiter. If the server cannot be reached during
// startup, NewRedisClient returns nil and callers degrade gracefully: the
// cache behaves as always-miss and rate limiting is disabled.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig is read from REDIS_* variables. Host and Port take precedence
// over Addr when both are set.
type RedisConfig struct {
    Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
    Host     string `env:"REDIS_HOST"`
    Port     string `env:"REDIS_PORT"`
    Password string `env:"REDIS_PASSWORD"`
    DB       int    `env:"REDIS_DB" envDefault:"0"`
    TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

// Address resolves the host:port the client dials.
func (r RedisConfig) Address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    if r.Addr == "" {
        return "localhost:6379"
    }
    return r.Addr
}

// NewRedisClient instantiates a Redis client from cfg.
// The returned client is nil if a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Address(),
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
