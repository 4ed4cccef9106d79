package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Mountable is anything that can attach its routes to a gin group
type Mountable interface {
	Mount(rg *gin.RouterGroup)
}

// API mounts resources under /api/<version>
type API struct {
	engine    *gin.Engine
	version   string
	resources []Mountable
}

// NewAPI creates an API rooted at /api/<version>. An empty version means v1.
func NewAPI(engine *gin.Engine, version string) *API {
	if version == "" {
		version = "v1"
	}
	return &API{engine: engine, version: version}
}

// Add queues resources for Mount
func (a *API) Add(resources ...Mountable) *API {
	a.resources = append(a.resources, resources...)
	return a
}

// Mount attaches every queued resource and returns the version group
func (a *API) Mount() *gin.RouterGroup {
	api := a.engine.Group("/api/" + a.version)
	for _, res := range a.resources {
		res.Mount(api)
	}
	return api
}

// Resource collects the routes of one ledger resource. Routes added with
// Mutate run behind the resource's guard chain; plain verbs do not.
type Resource struct {
	name     string
	prefix   string
	guard    []gin.HandlerFunc
	routes   []route
	children []*Resource
}

type route struct {
	method   string
	path     string
	guarded  bool
	handlers []gin.HandlerFunc
}

// NewResource creates a resource mounted at prefix
func NewResource(name, prefix string) *Resource {
	return &Resource{name: name, prefix: prefix}
}

// Guard sets the middleware placed in front of mutating routes. Children
// created afterwards inherit it.
func (r *Resource) Guard(chain ...gin.HandlerFunc) *Resource {
	r.guard = append(r.guard[:0:0], chain...)
	return r
}

func (r *Resource) handle(method, path string, guarded bool, handlers []gin.HandlerFunc) *Resource {
	r.routes = append(r.routes, route{method: method, path: path, guarded: guarded, handlers: handlers})
	return r
}

func (r *Resource) GET(path string, handlers ...gin.HandlerFunc) *Resource {
	return r.handle(http.MethodGet, path, false, handlers)
}

func (r *Resource) POST(path string, handlers ...gin.HandlerFunc) *Resource {
	return r.handle(http.MethodPost, path, false, handlers)
}

func (r *Resource) PUT(path string, handlers ...gin.HandlerFunc) *Resource {
	return r.handle(http.MethodPut, path, false, handlers)
}

func (r *Resource) PATCH(path string, handlers ...gin.HandlerFunc) *Resource {
	return r.handle(http.MethodPatch, path, false, handlers)
}

func (r *Resource) DELETE(path string, handlers ...gin.HandlerFunc) *Resource {
	return r.handle(http.MethodDelete, path, false, handlers)
}

// Mutate registers a ledger mutation behind the guard chain
func (r *Resource) Mutate(method, path string, handlers ...gin.HandlerFunc) *Resource {
	return r.handle(method, path, true, handlers)
}

// Child creates a nested resource under this one's prefix
func (r *Resource) Child(name, prefix string) *Resource {
	child := NewResource(name, prefix)
	child.guard = r.guard
	r.children = append(r.children, child)
	return child
}

// Mount implements Mountable
func (r *Resource) Mount(rg *gin.RouterGroup) {
	group := rg.Group(r.prefix)
	for _, rt := range r.routes {
		chain := rt.handlers
		if rt.guarded && len(r.guard) > 0 {
			chain = append(append(make([]gin.HandlerFunc, 0, len(r.guard)+len(rt.handlers)), r.guard...), rt.handlers...)
		}
		group.Handle(rt.method, rt.path, chain...)
	}
	for _, child := range r.children {
		child.Mount(group)
	}
}

// Name returns the resource name
func (r *Resource) Name() string { return r.name }

// GuardedRoutes lists "METHOD path" for every mutating route, children included
func (r *Resource) GuardedRoutes() []string {
	var out []string
	for _, rt := range r.routes {
		if rt.guarded {
			out = append(out, rt.method+" "+r.prefix+rt.path)
		}
	}
	for _, child := range r.children {
		for _, g := range child.GuardedRoutes() {
			method, path, _ := strings.Cut(g, " ")
			out = append(out, method+" "+r.prefix+path)
		}
	}
	return out
}
