package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCleanupsRunInReverse(t *testing.T) {
	var order []string
	var c cleanups
	for _, name := range []string{"tracer", "postgres", "redis"} {
		c.add(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	c.run(context.Background(), zap.NewNop())
	assert.Equal(t, []string{"redis", "postgres", "tracer"}, order)
}

func TestCleanupsContinuePastFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	flushed := false

	var c cleanups
	c.add("tracer", func(context.Context) error {
		flushed = true
		return nil
	})
	c.add("postgres", func(context.Context) error { return errors.New("connection reset") })

	c.run(context.Background(), zap.New(core))

	assert.True(t, flushed)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "postgres", logs.All()[0].ContextMap()["step"])
}
