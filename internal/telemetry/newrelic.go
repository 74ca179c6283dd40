package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelic is the APM agent as a lifecycle component.
type NewRelic struct {
	app *newrelic.Application
}

// NewNewRelic configures the agent. The application connects in the background.
func NewNewRelic(appName, license, environment string) (*NewRelic, error) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(license),
		newrelic.ConfigDistributedTracerEnabled(true),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"environment": environment}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("new relic application: %w", err)
	}
	return &NewRelic{app: app}, nil
}

// Application returns the agent application, nil when unset.
func (n *NewRelic) Application() *newrelic.Application {
	if n == nil {
		return nil
	}
	return n.app
}

func (n *NewRelic) Name() string { return "newrelic" }

func (n *NewRelic) Start(context.Context) error { return nil }

// Stop flushes harvested data, bounded by the context deadline.
func (n *NewRelic) Stop(ctx context.Context) error {
	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	n.app.Shutdown(timeout)
	return nil
}
