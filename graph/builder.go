// Package graph turns per-activity metric payloads into the job graph: one
// node per activity, links for one kind of player transition.
package graph

import (
	"time"

	"go.uber.org/zap"
)

// Builder builds JobGraphs. It holds no per-build state and is safe for concurrent use.
type Builder struct {
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewBuilder creates a Builder. A nil logger is replaced with a nop logger.
func NewBuilder(logger *zap.SugaredLogger) *Builder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Builder{
		logger: logger.Named("graph.builder"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}
