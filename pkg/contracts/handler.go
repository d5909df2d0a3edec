package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// Handler mounts a group of routes on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Stopper is a background component the application stops on shutdown,
// after the HTTP server has drained.
type Stopper interface {
	Stop(ctx context.Context) error
}

type StopFunc func(ctx context.Context) error

func (f StopFunc) Stop(ctx context.Context) error {
	return f(ctx)
}
