package main

import (
	"context"

	"go.uber.org/zap"
)

type cleanup struct {
	name string
	fn   func(context.Context) error
}

// cleanups releases resources in reverse order of acquisition. Every step
// runs even when an earlier one fails.
type cleanups []cleanup

func (c *cleanups) add(name string, fn func(context.Context) error) {
	*c = append(*c, cleanup{name: name, fn: fn})
}

func (c cleanups) run(ctx context.Context, log *zap.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].fn(ctx); err != nil {
			log.Warn("shutdown step failed", zap.String("step", c[i].name), zap.Error(err))
		}
	}
}
