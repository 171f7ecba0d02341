package main

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/config"
	"github.com/effective-security/bedrocktools/mcp"
	"github.com/effective-security/bedrocktools/mcp/transport/httptransport"
	"github.com/effective-security/bedrocktools/store"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// ServeCmd runs the MCP server
type ServeCmd struct {
	Addr     string `help:"Address to listen on, overrides server.addr"`
	Endpoint string `help:"Path of the MCP endpoint, overrides server.endpoint"`
	Stateful bool   `help:"Enable sessions, the server is stateless by default"`
	Cache    bool   `help:"Enable the tool results cache"`
	RedisURL string `name:"redis-url" env:"REDIS_URL" help:"Redis URL of the tool results cache"`
}

// Run the command
func (cmd *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	cfg.Server.Addr = values.StringsCoalesce(cmd.Addr, cfg.Server.Addr)
	cfg.Server.Endpoint = values.StringsCoalesce(cmd.Endpoint, cfg.Server.Endpoint)
	cfg.Cache.RedisURL = values.StringsCoalesce(cmd.RedisURL, cfg.Cache.RedisURL)
	cfg.Cache.Enabled = cfg.Cache.Enabled || cmd.Cache
	stateless := cfg.Server.IsStateless() && !cmd.Stateful

	tr := httptransport.New(cfg.Server.Endpoint,
		httptransport.WithAddr(cfg.Server.Addr),
		httptransport.WithStateless(stateless),
		httptransport.WithRequestTimeout(cfg.Server.GetRequestTimeout()),
	)

	var opts []mcp.Option
	if cfg.Cache.Enabled {
		cache, closer, err := newCache(&cfg.Cache)
		if err != nil {
			return err
		}
		if closer != nil {
			defer func() {
				_ = closer()
			}()
		}
		opts = append(opts, mcp.WithToolCache(cache, cfg.Cache.GetTTL()))
	}

	server, err := newServer(tr, cfg, nil, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = server.Close()
	}()

	logger.KV(xlog.NOTICE,
		"status", "starting",
		"version", Version,
		"addr", cfg.Server.Addr,
		"endpoint", cfg.Server.Endpoint,
		"stateless", stateless,
		"cache", cfg.Cache.Enabled,
	)
	return server.Serve(g.ctx)
}

// newCache returns redis cache when URL is configured,
// otherwise in-memory cache
func newCache(cfg *config.Cache) (store.Cache, func() error, error) {
	if cfg.RedisURL == "" {
		return store.NewMemoryCache(store.WithMaxEntries(cfg.MaxEntries)), nil, nil
	}
	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid redis URL")
	}
	client := redis.NewClient(options)
	return store.NewRedisCache(client, cfg.Prefix), client.Close, nil
}
