package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryStopsAfterSuccess(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), "fake", 5, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 2, calls)
}

func TestRetryGivesUpOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Retry(ctx, "fake", 5, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	require.Error(t, err)
	require.LessOrEqual(t, calls, 1)
}
