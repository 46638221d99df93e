// Package routing estimates driving minutes between two street addresses
// using Kakao Local geocoding and KakaoMobility directions.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProviderKakao tags estimates produced by this client.
const ProviderKakao = "kakao"

var (
	errNoAPIKey  = errors.New("kakao api key not configured")
	errNoResults = errors.New("no results")
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeocodeCache remembers address lookups between requests.
type GeocodeCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Config holds client settings.
type Config struct {
	APIKey       string
	LocalBaseURL string
	NaviBaseURL  string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// KakaoClient implements the travel estimator contract.
type KakaoClient struct {
	cfg    Config
	http   *http.Client
	cache  GeocodeCache
	logger *zap.Logger
}

// NewKakaoClient builds a client. cache and logger are optional.
func NewKakaoClient(cfg Config, cache GeocodeCache, logger *zap.Logger) *KakaoClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.LocalBaseURL == "" {
		cfg.LocalBaseURL = "https://dapi.kakao.com"
	}
	if cfg.NaviBaseURL == "" {
		cfg.NaviBaseURL = "https://apis-navi.kakaomobility.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KakaoClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

// Provider returns the tag stored alongside cached estimates.
func (c *KakaoClient) Provider() string { return ProviderKakao }

// EstimateMinutes returns driving minutes rounded to the nearest integer and
// floored at 1. ok is false on any geocoding or routing failure, including a
// missing API key or the overall timeout elapsing.
func (c *KakaoClient) EstimateMinutes(ctx context.Context, origin, dest string) (minutes int, ok bool) {
	origin = strings.TrimSpace(origin)
	dest = strings.TrimSpace(dest)
	if origin == "" || dest == "" {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	from, err := c.Geocode(ctx, origin)
	if err != nil {
		c.logger.Warn("geocode origin failed", zap.String("address", origin), zap.Error(err))
		return 0, false
	}
	to, err := c.Geocode(ctx, dest)
	if err != nil {
		c.logger.Warn("geocode destination failed", zap.String("address", dest), zap.Error(err))
		return 0, false
	}
	seconds, err := c.routeSeconds(ctx, from, to)
	if err != nil {
		c.logger.Warn("route lookup failed", zap.String("origin", origin), zap.String("dest", dest), zap.Error(err))
		return 0, false
	}
	return RoundMinutes(seconds), true
}

// RoundMinutes converts seconds to whole minutes, never below 1.
func RoundMinutes(seconds float64) int {
	m := int(math.Round(seconds / 60.0))
	if m < 1 {
		return 1
	}
	return m
}

// Geocode resolves an address to coordinates, consulting the cache first.
func (c *KakaoClient) Geocode(ctx context.Context, address string) (Coordinates, error) {
	if c.cfg.APIKey == "" {
		return Coordinates{}, errNoAPIKey
	}
	key := "geocode:" + address
	if c.cache != nil {
		var cached Coordinates
		if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/v2/local/search/address.json?query=%s&size=1",
		strings.TrimRight(c.cfg.LocalBaseURL, "/"), url.QueryEscape(address))

	var payload struct {
		Documents []struct {
			X string `json:"x"`
			Y string `json:"y"`
		} `json:"documents"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return Coordinates{}, err
	}
	if len(payload.Documents) == 0 {
		return Coordinates{}, errNoResults
	}
	lon, err := strconv.ParseFloat(payload.Documents[0].X, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(payload.Documents[0].Y, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}
	coords := Coordinates{Lat: lat, Lon: lon}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, coords, c.cfg.CacheTTL); err != nil {
			c.logger.Debug("geocode cache set failed", zap.Error(err))
		}
	}
	return coords, nil
}

func (c *KakaoClient) routeSeconds(ctx context.Context, from, to Coordinates) (float64, error) {
	params := url.Values{}
	// KakaoMobility expects "x,y", i.e. longitude first.
	params.Set("origin", fmt.Sprintf("%f,%f", from.Lon, from.Lat))
	params.Set("destination", fmt.Sprintf("%f,%f", to.Lon, to.Lat))
	params.Set("summary", "false")
	params.Set("priority", "RECOMMEND")
	params.Set("alternatives", "false")
	params.Set("road_details", "false")
	endpoint := strings.TrimRight(c.cfg.NaviBaseURL, "/") + "/v1/directions?" + params.Encode()

	var payload struct {
		Routes []struct {
			Summary *struct {
				Duration *float64 `json:"duration"`
			} `json:"summary"`
		} `json:"routes"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return 0, err
	}
	if len(payload.Routes) == 0 || payload.Routes[0].Summary == nil || payload.Routes[0].Summary.Duration == nil {
		return 0, errNoResults
	}
	return *payload.Routes[0].Summary.Duration, nil
}

func (c *KakaoClient) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
