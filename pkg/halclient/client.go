// Package halclient provides the main entry point for creating HAL API clients
package halclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/internal/model"
	"github.com/fivetwenty-io/hal-client/internal/transport"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// New creates a new HAL API client from the config. Construction
// performs no network calls; the context is threaded for parity with
// request methods.
func New(_ context.Context, config *hal.Config) (hal.Client, error) {
	if config == nil {
		return nil, hal.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, hal.ErrEndpointRequired
	}

	// Normalize endpoint
	endpoint := strings.TrimSuffix(config.Endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}

	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", hal.ErrNoHostInURL, config.Endpoint)
	}

	config.Endpoint = endpoint

	wire := transport.NewClient(endpoint, transportOptions(config)...)

	registry, err := model.NewRegistry(wire,
		model.WithLogger(loggerOrNoop(config)),
		model.WithCacheFactory(func() (hal.Cache, error) {
			return hal.NewCacheFromConfig(config.Cache)
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return registry, nil
}

// NewWithEndpoint creates a new client with just an API endpoint.
func NewWithEndpoint(ctx context.Context, endpoint string) (hal.Client, error) {
	return New(ctx, &hal.Config{
		Endpoint: endpoint,
	})
}

// NewWithToken creates a new client that sends a static bearer token as
// an Authorization header. No token acquisition or refresh is performed.
func NewWithToken(ctx context.Context, endpoint, token string) (hal.Client, error) {
	return New(ctx, &hal.Config{
		Endpoint: endpoint,
		Headers:  map[string]string{"Authorization": "Bearer " + token},
	})
}

func transportOptions(config *hal.Config) []transport.Option {
	opts := []transport.Option{
		transport.WithDebug(config.Debug),
		transport.WithRetryConfig(config.RetryMax,
			waitOrDefault(config.RetryWaitMin, constants.DefaultRetryWaitMin),
			waitOrDefault(config.RetryWaitMax, constants.DefaultRetryWaitMax)),
	}

	if config.Logger != nil {
		opts = append(opts, transport.WithLogger(config.Logger))
	}

	if config.UserAgent != "" {
		opts = append(opts, transport.WithUserAgent(config.UserAgent))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(config.Headers))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, transport.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		opts = append(opts, transport.WithInterceptors(config.Interceptors))
	}

	return opts
}

func waitOrDefault(wait, fallback time.Duration) time.Duration {
	if wait > 0 {
		return wait
	}

	return fallback
}

func loggerOrNoop(config *hal.Config) hal.Logger {
	if config.Logger != nil {
		return config.Logger
	}

	return hal.NoopLogger{}
}
