// context.go defines the Context interface for extension access to pbmcp
// internals.
//
// Separated from extension.go to isolate dependency injection concerns.
// The Context provides a controlled surface area for extensions: the shared
// service (session holder, executors, status) and the loaded configuration.
//
// Extensions receive Context during Init(), not at construction, because
// they register before configuration is loaded.

package extension

import (
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/service"
)

// Context provides extensions controlled access to pbmcp internals.
type Context interface {
	// Service returns the shared backend service.
	Service() *service.Service

	// Config returns the loaded configuration.
	Config() *config.Config
}

// extContext implements Context.
type extContext struct {
	svc *service.Service
	cfg *config.Config
}

// NewContext creates a new extension context.
func NewContext(svc *service.Service, cfg *config.Config) Context {
	return &extContext{svc: svc, cfg: cfg}
}

func (c *extContext) Service() *service.Service { return c.svc }

func (c *extContext) Config() *config.Config { return c.cfg }
