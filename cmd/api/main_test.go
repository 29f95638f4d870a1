package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--config", "helpdesk.yaml", "--migrate"})
	require.NoError(t, err)
	assert.Equal(t, options{configPath: "helpdesk.yaml", migrate: true}, opts)

	opts, err = parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, options{}, opts)

	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func TestNewEphemeralStoresDefaultsToMemory(t *testing.T) {
	typing, feed := newEphemeralStores(config.EphemeralConfig{TypingTTL: time.Second, FeedCapacity: 5}, nil)
	assert.IsType(t, &ephemeral.MemoryTypingStore{}, typing)
	assert.IsType(t, &ephemeral.MemoryNotificationFeed{}, feed)
}
