package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"store", "server", "logger"} {
		name := name
		m.Register(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"logger", "server", "store"}, order)
}

func TestShutdownCollectsErrorsAndKeepsGoing(t *testing.T) {
	m := New(time.Second, nil)

	errStore := errors.New("store close failed")
	var serverClosed bool
	m.Register("server", func(ctx context.Context) error {
		serverClosed = true
		return nil
	})
	m.Register("store", func(ctx context.Context) error {
		return errStore
	})

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
	assert.True(t, serverClosed, "a failing hook must not block the rest")
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := New(time.Second, nil)

	var calls int
	m.Register("store", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestRegisterIgnoresNilHook(t *testing.T) {
	m := New(time.Second, nil)
	m.Register("noop", nil)
	require.NoError(t, m.Shutdown(context.Background()))
}
