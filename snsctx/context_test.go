package snsctx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(SetVerbose(ctx, true)))
	assert.False(t, IsVerbose(SetVerbose(SetVerbose(ctx, true), false)))
}

func TestLogger_DefaultsToSlogDefault(t *testing.T) {
	assert.Same(t, slog.Default(), Logger(context.Background()))
}

func TestTrace(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithLogger(context.Background(), logger)

	Trace(ctx, "quiet")
	assert.Empty(t, buf.String())

	Trace(SetVerbose(ctx, true), "loud", "reg", "0x2d")
	assert.Contains(t, buf.String(), "msg=loud")
	assert.Contains(t, buf.String(), "reg=0x2d")
}
