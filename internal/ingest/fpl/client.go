package fpl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/totw/pkg/config"
	"github.com/wonny/totw/pkg/httputil"
	"github.com/wonny/totw/pkg/logger"
	"github.com/wonny/totw/pkg/redis"
)

// Client fetches Fantasy Premier League API payloads. Requests are rate
// limited and retried by the shared HTTP client; the bootstrap and live
// payloads are cached in Redis because the schedulers hit them repeatedly.
type Client struct {
	http   *httputil.Client
	cache  *redis.Cache
	cfg    config.FPLConfig
	logger *logger.Logger
}

// NewClient creates an FPL API client. cache may be nil to disable caching.
func NewClient(cfg config.FPLConfig, http *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		http:   http.WithRateLimit(cfg.RequestsPerSecond),
		cache:  cache,
		cfg:    cfg,
		logger: log.WithField("component", "fpl"),
	}
}

// Bootstrap fetches /bootstrap-static/: every player, team and gameweek.
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var bootstrap Bootstrap
	if c.cached(ctx, "bootstrap", &bootstrap) {
		return &bootstrap, nil
	}

	if err := c.getJSON(ctx, "/bootstrap-static/", &bootstrap); err != nil {
		return nil, fmt.Errorf("fetch bootstrap: %w", err)
	}

	c.store(ctx, "bootstrap", &bootstrap, c.cfg.BootstrapTTL)
	return &bootstrap, nil
}

// Fixtures fetches the fixtures of one gameweek.
func (c *Client) Fixtures(ctx context.Context, event int) ([]Fixture, error) {
	var fixtures []Fixture
	if err := c.getJSON(ctx, fmt.Sprintf("/fixtures/?event=%d", event), &fixtures); err != nil {
		return nil, fmt.Errorf("fetch fixtures for event %d: %w", event, err)
	}
	return fixtures, nil
}

// EventLive fetches the per-player stats of one gameweek.
func (c *Client) EventLive(ctx context.Context, event int) (*Live, error) {
	key := fmt.Sprintf("live:%d", event)

	var live Live
	if c.cached(ctx, key, &live) {
		return &live, nil
	}

	if err := c.getJSON(ctx, fmt.Sprintf("/event/%d/live/", event), &live); err != nil {
		return nil, fmt.Errorf("fetch live stats for event %d: %w", event, err)
	}

	c.store(ctx, key, &live, c.cfg.LiveTTL)
	return &live, nil
}

// DreamTeam fetches the official dream team of a finished gameweek.
func (c *Client) DreamTeam(ctx context.Context, event int) (*DreamTeamResponse, error) {
	var dt DreamTeamResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/dream-team/%d/", event), &dt); err != nil {
		return nil, fmt.Errorf("fetch dream team for event %d: %w", event, err)
	}
	return &dt, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	body, err := c.http.GetBody(ctx, c.cfg.BaseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) cached(ctx context.Context, key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	return hit
}

func (c *Client) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}
