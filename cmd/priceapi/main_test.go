package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"house-price-api/internal/cfg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForShutdown_ServerErrorIsReturned(t *testing.T) {
	serverErr := make(chan error, 1)
	serverErr <- errors.New("address already in use")

	err := waitForShutdown(context.Background(), make(chan os.Signal), serverErr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
}

func TestWaitForShutdown_Signal(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	sigChan <- os.Interrupt

	assert.NoError(t, waitForShutdown(context.Background(), sigChan, make(chan error)))
}

func TestWaitForShutdown_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, waitForShutdown(ctx, make(chan os.Signal), make(chan error)))
}

func TestInitializeStorage(t *testing.T) {
	assert.Nil(t, initializeStorage(cfg.Settings{}))

	store := initializeStorage(cfg.Settings{DataPath: t.TempDir()})
	require.NotNil(t, store)
	assert.NoError(t, store.Close())
}
