package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) component(name string, startErr, stopErr error) Func {
	return Func{
		ComponentName: name,
		OnStart: func(context.Context) error {
			r.events = append(r.events, "start "+name)
			return startErr
		},
		OnStop: func(context.Context) error {
			r.events = append(r.events, "stop "+name)
			return stopErr
		},
	}
}

type checked struct {
	Func
	err error
}

func (c checked) Check(context.Context) error { return c.err }

func TestManager_StartsInOrderStopsInReverse(t *testing.T) {
	rec := &recorder{}
	m := NewManager(zerolog.Nop())
	m.Register(rec.component("database", nil, nil))
	m.Register(rec.component("cache", nil, nil))
	m.Register(rec.component("workers", nil, nil))

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	assert.Equal(t, []string{
		"start database", "start cache", "start workers",
		"stop workers", "stop cache", "stop database",
	}, rec.events)
	assert.Equal(t, []string{"database", "cache", "workers"}, m.Names())
}

func TestManager_StartFailureUnwindsStartedComponents(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	m := NewManager(zerolog.Nop())
	m.Register(rec.component("database", nil, nil))
	m.Register(rec.component("cache", boom, nil))
	m.Register(rec.component("workers", nil, nil))

	err := m.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "start cache")
	assert.Equal(t, []string{"start database", "start cache", "stop database"}, rec.events)
}

func TestManager_StopContinuesPastFailures(t *testing.T) {
	rec := &recorder{}
	bad := errors.New("close failed")
	m := NewManager(zerolog.Nop())
	m.Register(rec.component("database", nil, nil))
	m.Register(rec.component("cache", nil, bad))

	require.NoError(t, m.Start(context.Background()))
	err := m.Stop(context.Background())

	require.ErrorIs(t, err, bad)
	assert.Equal(t, []string{"start database", "start cache", "stop cache", "stop database"}, rec.events)
	// a second stop has nothing left to do
	require.NoError(t, m.Stop(context.Background()))
}

func TestManager_Check(t *testing.T) {
	rec := &recorder{}
	m := NewManager(zerolog.Nop())
	m.Register(checked{Func: rec.component("database", nil, nil), err: errors.New("ping failed")})
	m.Register(rec.component("tracing", nil, nil))

	assert.Equal(t, map[string]string{"database": StatusNotReady, "tracing": StatusNotReady}, m.Check(context.Background()))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, map[string]string{"database": StatusUnhealthy, "tracing": StatusReady}, m.Check(context.Background()))
}

func TestManager_ComponentsWithSameNameAreTrackedSeparately(t *testing.T) {
	rec := &recorder{}
	m := NewManager(zerolog.Nop())
	m.Register(rec.component("worker", nil, nil))
	m.Register(checked{Func: rec.component("worker", nil, nil), err: errors.New("stuck")})

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, map[string]string{"worker": StatusUnhealthy}, m.Check(context.Background()))

	require.NoError(t, m.Stop(context.Background()))
	assert.Equal(t, []string{"start worker", "start worker", "stop worker", "stop worker"}, rec.events)
	assert.Equal(t, map[string]string{"worker": StatusNotReady}, m.Check(context.Background()))
}
