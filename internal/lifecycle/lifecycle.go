// Package lifecycle starts process resources in registration order and stops
// them in reverse order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Component is a process resource with an explicit start and stop.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Checker is implemented by components that can report their own health.
type Checker interface {
	Check(ctx context.Context) error
}

const (
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
	StatusUnhealthy = "unhealthy"
)

// Manager owns the ordered set of components.
type Manager struct {
	mu         sync.Mutex
	logger     zerolog.Logger
	components []Component
	// started is indexed like components, so equal names stay distinct.
	started []bool
}

// NewManager returns an empty Manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		logger: logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Register appends c. Components start in the order they are registered.
func (m *Manager) Register(c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, c)
	m.started = append(m.started, false)
}

// Names returns registered component names in start order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}
	return names
}

// Start runs every component's Start in order. If one fails, the components
// already started are stopped in reverse order and the failure is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info().Int("total", len(m.components)).Msg("Running startup tasks")
	for i, c := range m.components {
		if m.started[i] {
			continue
		}
		m.logger.Debug().Str("task", c.Name()).Int("number", i+1).Msg("Starting task")
		if err := c.Start(ctx); err != nil {
			m.logger.Error().Err(err).Str("task", c.Name()).Msg("Startup task failed")
			if stopErr := m.stopLocked(ctx); stopErr != nil {
				err = errors.Join(err, stopErr)
			}
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		m.started[i] = true
		m.logger.Debug().Str("task", c.Name()).Msg("Task completed")
	}
	return nil
}

// Stop runs Stop on every started component in reverse order. A failing
// component does not prevent the others from stopping; failures are joined.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		if !m.started[i] {
			continue
		}
		if err := c.Stop(ctx); err != nil {
			m.logger.Error().Err(err).Str("task", c.Name()).Msg("Shutdown task failed")
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
		}
		m.started[i] = false
	}
	return errors.Join(errs...)
}

// Check reports the status of every component by name. Started components that
// implement Checker are asked; the others are ready once started.
func (m *Manager) Check(ctx context.Context) map[string]string {
	m.mu.Lock()
	components := append([]Component(nil), m.components...)
	started := append([]bool(nil), m.started...)
	m.mu.Unlock()

	out := make(map[string]string, len(components))
	for i, c := range components {
		status := StatusReady
		switch {
		case !started[i]:
			status = StatusNotReady
		default:
			if checker, ok := c.(Checker); ok {
				if err := checker.Check(ctx); err != nil {
					status = StatusUnhealthy
				}
			}
		}
		// components sharing a name report the worst status
		if prev, ok := out[c.Name()]; ok && prev != StatusReady {
			continue
		}
		out[c.Name()] = status
	}
	return out
}

// Func adapts a pair of functions to a Component.
type Func struct {
	ComponentName string
	OnStart       func(ctx context.Context) error
	OnStop        func(ctx context.Context) error
}

func (f Func) Name() string { return f.ComponentName }

func (f Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}
