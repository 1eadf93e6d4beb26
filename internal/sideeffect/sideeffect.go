// Package sideeffect runs best-effort bookkeeping around a primary write.
// A failed side effect is logged and dropped; it never reaches the caller
// and never rolls back the write it follows.
package sideeffect

import (
	"context"

	"go.uber.org/zap"
)

// Run executes fn and swallows its error after logging it under name.
func Run(ctx context.Context, log *zap.Logger, name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	if err := fn(ctx); err != nil {
		if log != nil {
			log.Warn("best-effort side effect failed",
				zap.String("side_effect", name),
				zap.Error(err),
			)
		}
	}
}
