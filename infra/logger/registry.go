package logger

import (
	"sync"

	"github.com/shopmart/tinkoff-gateway/provider"
)

// Registry hands out named category loggers backed by a single SystemLogger.
// It is created once at startup and injected into plugins, so two registries
// with different sinks can coexist in one process.
type Registry struct {
	system *SystemLogger

	mu         sync.RWMutex
	categories map[string]*categoryLogger
}

// NewRegistry creates a category logger registry over a system logger.
func NewRegistry(system *SystemLogger) *Registry {
	return &Registry{
		system:     system,
		categories: make(map[string]*categoryLogger),
	}
}

// Category returns the logger for a category, creating it on first use.
func (r *Registry) Category(name string) provider.CategoryLogger {
	r.mu.RLock()
	cl, ok := r.categories[name]
	r.mu.RUnlock()
	if ok {
		return cl
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cl, ok := r.categories[name]; ok {
		return cl
	}
	cl = &categoryLogger{system: r.system, category: name}
	r.categories[name] = cl
	return cl
}

// categoryLogger binds a SystemLogger to one category name.
type categoryLogger struct {
	system   *SystemLogger
	category string
}

func (cl *categoryLogger) Debug(message string, fields map[string]any) {
	cl.system.Debug(cl.category, message, fields)
}

func (cl *categoryLogger) Info(message string, fields map[string]any) {
	cl.system.Info(cl.category, message, fields)
}

func (cl *categoryLogger) Error(message string, err error, fields map[string]any) {
	cl.system.Error(cl.category, message, err, fields)
}
