package provenance

import (
	"context"
	"errors"
	"runtime"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// Parallelism is the default worker count for the pipeline pool: four per CPU, capped at 512.
func Parallelism(override int) int {
	if override > 0 {
		if override > 512 {
			return 512
		}
		return override
	}

	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	parallelism := n * 4
	if parallelism > 512 {
		parallelism = 512
	}
	return parallelism
}

// NewPool builds the shared worker pool remote calls are fanned out on.
func NewPool(override int) pond.Pool {
	return pond.NewPool(Parallelism(override))
}

// waitGroup is the all-complete barrier. Tasks never return errors, so the only failures are
// cancellation of the caller's context.
func waitGroup(group pond.TaskGroup, logger *zap.Logger, what string) {
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.Warn("parallel fetch encountered error", zap.String("stage", what), zap.Error(err))
	}
}
