package common

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	debug := SetupLogger(&LoggingOpts{Debug: true, JSON: true, Service: "gateway", Version: Version})
	assert.True(t, debug.Enabled(context.Background(), slog.LevelDebug))

	info := SetupLogger(&LoggingOpts{})
	assert.False(t, info.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, info.Enabled(context.Background(), slog.LevelInfo))
}
