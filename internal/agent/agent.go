package agent

import (
	"context"

	"github.com/ccastromar/cgs-code-generation-system/internal/bus"
)

type Agent interface {
	Start(ctx context.Context) error
	Inbox() chan bus.Message
}

// Bus target names for the workflow stages.
const (
	TargetGenerator = "generator"
	TargetChecker   = "checker"
	TargetRectifier = "rectifier"
	TargetExecutor  = "executor"
	TargetReporter  = "reporter"
)
