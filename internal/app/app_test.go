package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFailsOnUnreadableConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "/nonexistent/config.yaml")
	require.ErrorContains(t, err, "load config")
}

func TestNewFailsWithoutDSN(t *testing.T) {
	// No config file and no env leaves db.dsn empty; the container must fail
	// fast instead of deferring the error to the first query.
	_, err := New(context.Background(), "")
	require.ErrorContains(t, err, "init store")
}
