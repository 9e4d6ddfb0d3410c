package port

import (
	"github.com/berfenger/homesim/internal/core/domain"
)

// Simulator is anything that evolves on the clock once started.
// Shutdown is idempotent and cancels every pending callback.
type Simulator interface {
	Start()
	Shutdown()
}

type OperationExecutor interface {
	Operations() []domain.OperationInfo
	Execute(name string, args map[string]any) (domain.OperationResult, error)
}
