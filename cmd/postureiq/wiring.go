package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/postureiq-client/activity"
	"github.com/jrsteele09/postureiq-client/activity/pgrepo"
	"github.com/jrsteele09/postureiq-client/app"
	"github.com/jrsteele09/postureiq-client/internal/config"
	"github.com/jrsteele09/postureiq-client/internal/metrics"
	"github.com/jrsteele09/postureiq-client/navigation"
	"github.com/jrsteele09/postureiq-client/provider/oidcprovider"
	"github.com/jrsteele09/postureiq-client/token"
	"github.com/jrsteele09/postureiq-client/token/filerepo"
	"github.com/jrsteele09/postureiq-client/token/redisrepo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
)

// client bundles everything a command needs and how to release it.
type client struct {
	provider *oidcprovider.Provider
	registry *prometheus.Registry
	metrics  *metrics.Collector
	closers  []func() error
}

func (c *client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

func newTokenRepo(ctx context.Context, cfg config.StorageConfig) (token.Repo, func() error, error) {
	switch cfg.GetTokenStore() {
	case config.TokenStoreRedis:
		store, err := redisrepo.New(ctx, cfg.GetRedisURL(), "default")
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.TokenStoreFile, "":
		store, err := filerepo.New(cfg.GetCredentialsPath())
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.GetTokenStore())
	}
}

// newActivityRepo returns nil when no database is configured.
func newActivityRepo(ctx context.Context, cfg config.StorageConfig) (activity.Repo, func() error, error) {
	if cfg.GetDatabaseURL() == "" {
		return nil, func() error { return nil }, nil
	}
	repo, err := pgrepo.Open(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

func newClient(ctx context.Context, cfg config.Config) (*client, error) {
	c := &client{registry: prometheus.NewRegistry()}
	c.metrics = metrics.NewCollector(c.registry)

	tokens, closeTokens, err := newTokenRepo(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("token store: %w", err)
	}
	c.closers = append(c.closers, closeTokens)

	activityRepo, closeActivity, err := newActivityRepo(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("activity database: %w", err)
	}
	c.closers = append(c.closers, closeActivity)

	options := []oidcprovider.Option{}
	if activityRepo != nil {
		options = append(options, oidcprovider.WithActivityRepo(activityRepo))
	}
	c.provider, err = oidcprovider.New(ctx, oidcprovider.Config{
		IssuerURL:    cfg.GetIssuerURL(),
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		RedirectURL:  cfg.GetRedirectURL(),
		Scopes:       cfg.GetScopes(),
		HTTPClient:   &http.Client{Timeout: cfg.GetHTTPTimeout()},
	}, tokens, options...)
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// startApp starts a client session at path and waits for the session check.
func (c *client) startApp(ctx context.Context, cfg config.Config, path string) (*app.App, *navigation.MemoryRouter, error) {
	router := navigation.NewMemoryRouter(path)
	a, err := app.New(c.provider, router,
		app.WithMetrics(c.metrics),
		app.WithPaths(cfg.GetLoginPath(), cfg.GetHomePath(), cfg.GetProtectedPaths()...),
	)
	if err != nil {
		return nil, nil, err
	}
	c.closers = append(c.closers, a.Close)

	if err := a.Start(ctx); err != nil {
		return nil, nil, err
	}
	select {
	case <-a.Ready():
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	return a, router, nil
}

func (c *client) printMetrics() error {
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	data := pterm.TableData{{"METRIC", "LABELS", "VALUE"}}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += lp.GetName() + "=" + lp.GetValue() + " "
			}
			data = append(data, []string{mf.GetName(), labels, fmt.Sprintf("%g", m.GetCounter().GetValue())})
		}
	}
	pterm.DefaultSection.Println("Metrics")
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
