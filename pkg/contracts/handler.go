package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// ShutdownHook releases a component when the application stops. Hooks run
// after the HTTP server has drained, in registration order.
type ShutdownHook struct {
	Name string
	Fn   func(ctx context.Context) error
}
