package provider

import (
	"fmt"
	"sync"
)

// PluginRegistry manages payment plugin factories so the host event
// dispatcher can resolve a plugin by the name stored on an order's payment
// method.
type PluginRegistry struct {
	factories map[string]PluginFactory
	mu        sync.RWMutex
}

// NewPluginRegistry creates a new plugin registry
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		factories: make(map[string]PluginFactory),
	}
}

// Register adds a payment plugin factory to the registry
func (r *PluginRegistry) Register(name string, factory PluginFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get retrieves a payment plugin factory by name
func (r *PluginRegistry) Get(name string) (PluginFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("payment plugin '%s' is not registered", name)
	}

	return factory, nil
}

// CreatePlugin creates a new instance of a payment plugin with the given
// host collaborators.
func (r *PluginRegistry) CreatePlugin(name string, deps Deps) (PaymentPlugin, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return factory(deps), nil
}

// PluginNames returns a list of all registered plugin names
func (r *PluginRegistry) PluginNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}

// DefaultRegistry is the global default plugin registry
var DefaultRegistry = NewPluginRegistry()

// Register registers a plugin with the default registry
func Register(name string, factory PluginFactory) {
	DefaultRegistry.Register(name, factory)
}

// CreatePlugin creates a plugin instance from the default registry
func CreatePlugin(name string, deps Deps) (PaymentPlugin, error) {
	return DefaultRegistry.CreatePlugin(name, deps)
}
