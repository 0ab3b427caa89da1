package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapLogger(zap.New(core)).With("module", "grpc_server")
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "signed up", "email", "a@b.com")
	log.Warn(ctx, "slow")
	log.Error(ctx, "failed", "code", 13)

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "signed up", entries[1].Message)
	fields := entries[1].ContextMap()
	assert.Equal(t, "a@b.com", fields["email"])
	assert.Equal(t, "grpc_server", fields["module"])
	assert.Equal(t, int64(13), entries[3].ContextMap()["code"])
}

func TestNewProductionZap_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := NewProductionZap("loud")
	require.NoError(t, err)
	require.NotNil(t, l)
	_ = l.Sync()
}
