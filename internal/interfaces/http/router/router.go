package router

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Registrar is implemented by handlers that mount their own routes under
// the versioned API group.
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under /api/<version>.
type Router struct {
	engine     *gin.Engine
	version    string
	registrars []Registrar
}

// Option configures a Router.
type Option func(*Router)

// WithVersion overrides the default "v1" version segment. Surrounding
// slashes are stripped.
func WithVersion(version string) Option {
	return func(r *Router) {
		r.version = strings.Trim(version, "/")
	}
}

// New creates a Router bound to engine.
func New(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues one or more registrars for Setup. Returns the router for
// chaining.
func (r *Router) Register(registrars ...Registrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every queued registrar under the versioned group and
// returns the group so callers can hang extra routes off it.
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group("/api/" + r.version)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
	return api
}
