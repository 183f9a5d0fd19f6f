package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	customerrender "github.com/bnema/viewsync/internal/adapters/render/customer"
	tomlrepo "github.com/bnema/viewsync/internal/adapters/repo/toml"
	chainstore "github.com/bnema/viewsync/internal/adapters/secrets/chain"
	filestore "github.com/bnema/viewsync/internal/adapters/secrets/file"
	"github.com/bnema/viewsync/internal/cache"
	"github.com/bnema/viewsync/internal/confirm"
	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/ports"
	"github.com/bnema/viewsync/internal/presence"
)

const (
	hubURLKey          = "hub.url"
	hubTokenKeyKey     = "hub.token_key"
	hubPingIntervalKey = "hub.ping_interval"
	hubReconnectKey    = "hub.reconnect_delays"
	hubAwaitKey        = "hub.await_timeout"
	confirmPolicyKey   = "confirm.policy"
	tokensBackendKey   = "tokens.backend"
)

var errHubNotConfigured = errors.New("presence hub is not configured (set hub.url or VS_HUB_URL)")

type app struct {
	cfg          *viper.Viper
	gateway      ports.CustomerGateway
	tokens       ports.TokenStore
	cache        *cache.Cache
	broker       *confirm.Broker
	hub          hubConfig
	renderDetail func(customerrender.Detail, customerrender.RenderOptions) (string, error)
	renderList   func([]*domain.Customer, customerrender.RenderOptions) (string, error)
	now          func() time.Time
}

type hubConfig struct {
	URL      string
	TokenKey string
	Settings presence.Settings
	// AwaitTimeout bounds how long a command waits for the hub to report
	// who else holds a record it just opened.
	AwaitTimeout time.Duration
}

func wireApp() (*app, error) {
	cfg := viper.New()
	cfg.SetEnvPrefix("VS")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	defaults := presence.DefaultSettings()
	cfg.SetDefault(hubURLKey, "")
	cfg.SetDefault(hubTokenKeyKey, "hub/access_token")
	cfg.SetDefault(hubPingIntervalKey, defaults.PingInterval.String())
	cfg.SetDefault(hubReconnectKey, durationStrings(defaults.ReconnectDelays))
	cfg.SetDefault(hubAwaitKey, "1s")
	cfg.SetDefault(confirmPolicyKey, confirm.PolicySupersede.String())
	cfg.SetDefault(tokensBackendKey, "file")

	repo, err := tomlrepo.NewRepository(cfg, ports.SystemClock{})
	if err != nil {
		return nil, fmt.Errorf("wire customer repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	tokens, err := newTokenStore(cfg.GetString(tokensBackendKey), filepath.Join(homeDir, ".viewsync", "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire token store: %w", err)
	}

	policy, err := confirm.ParsePolicy(cfg.GetString(confirmPolicyKey))
	if err != nil {
		return nil, fmt.Errorf("wire confirmation broker: %w", err)
	}

	hub, err := loadHubConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire presence hub: %w", err)
	}

	return &app{
		cfg:          cfg,
		gateway:      repo,
		tokens:       tokens,
		cache:        cache.New(cache.WithName("records")),
		broker:       confirm.New(confirm.WithPolicy(policy)),
		hub:          hub,
		renderDetail: customerrender.RenderDetail,
		renderList:   customerrender.RenderList,
		now:          time.Now,
	}, nil
}

// newTokenStore picks where access tokens live. "pass" keeps them in the
// password store and falls back to files when pass is missing or fails.
func newTokenStore(backend string, fileRoot string) (ports.TokenStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "file":
		return filestore.NewStore(fileRoot), nil
	case "pass":
		return chainstore.NewPassFirstWithFileFallback(fileRoot)
	default:
		return nil, fmt.Errorf("unknown %s %q (want file or pass)", tokensBackendKey, backend)
	}
}

func loadHubConfig(cfg *viper.Viper) (hubConfig, error) {
	settings := presence.DefaultSettings()

	interval, err := time.ParseDuration(cfg.GetString(hubPingIntervalKey))
	if err != nil {
		return hubConfig{}, fmt.Errorf("parse %s: %w", hubPingIntervalKey, err)
	}
	settings.PingInterval = interval

	delays, err := parseDurations(cfg.GetStringSlice(hubReconnectKey))
	if err != nil {
		return hubConfig{}, fmt.Errorf("parse %s: %w", hubReconnectKey, err)
	}
	settings.ReconnectDelays = delays

	await, err := time.ParseDuration(cfg.GetString(hubAwaitKey))
	if err != nil {
		return hubConfig{}, fmt.Errorf("parse %s: %w", hubAwaitKey, err)
	}

	return hubConfig{
		URL:          strings.TrimSpace(cfg.GetString(hubURLKey)),
		TokenKey:     cfg.GetString(hubTokenKeyKey),
		Settings:     settings,
		AwaitTimeout: await,
	}, nil
}

// newChannel builds a disconnected presence channel authenticated from the
// token store.
func (a *app) newChannel() (*presence.Channel, error) {
	if a.hub.URL == "" {
		return nil, errHubNotConfigured
	}
	return presence.New(a.hub.URL,
		presence.WithSettings(a.hub.Settings),
		presence.WithTokenStore(a.tokens, a.hub.TokenKey),
	), nil
}

func parseDurations(raw []string) ([]time.Duration, error) {
	delays := make([]time.Duration, 0, len(raw))
	for _, value := range raw {
		// env values arrive as one comma separated string
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := time.ParseDuration(part)
			if err != nil {
				return nil, err
			}
			delays = append(delays, d)
		}
	}
	return delays, nil
}

func durationStrings(delays []time.Duration) []string {
	out := make([]string, 0, len(delays))
	for _, d := range delays {
		out = append(out, d.String())
	}
	return out
}
