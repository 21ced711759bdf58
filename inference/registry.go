// Package inference - Registry of operator creators.
package inference

import (
	"fmt"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CreatorKey identifies a creator inside a Registry.
type CreatorKey struct {
	Namespace string
	Name      string
	Version   string
}

// String implements fmt.Stringer, e.g. "CombinedNMS_Plugin/1".
func (k CreatorKey) String() string {
	if k.Namespace == "" {
		return fmt.Sprintf("%s/%s", k.Name, k.Version)
	}
	return fmt.Sprintf("%s::%s/%s", k.Namespace, k.Name, k.Version)
}

// KeyOf returns the registry key of a creator.
func KeyOf(c Creator) CreatorKey {
	return CreatorKey{Namespace: c.PluginNamespace(), Name: c.PluginName(), Version: c.PluginVersion()}
}

// Registry holds the creators the engine can build operators from.
//
// Registration and lookups are safe for concurrent use; the creators themselves are not
// required to be.
type Registry struct {
	mu       sync.RWMutex
	creators map[CreatorKey]Creator
	order    []CreatorKey
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{creators: make(map[CreatorKey]Creator)}
}

// Register adds a creator.
//
// Arguments:
//   - c: The creator to register.
//
// Returns:
//   - error: An error if a creator with the same namespace, name and version is registered.
func (r *Registry) Register(c Creator) error {
	key := KeyOf(c)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.creators[key]; found {
		return fmt.Errorf("creator %s already registered", key)
	}
	r.creators[key] = c
	r.order = append(r.order, key)
	klog.V(1).Infof("registered operator creator %s", key)
	return nil
}

// Creator looks a creator up in the default (empty) namespace.
func (r *Registry) Creator(name, version string) (Creator, bool) {
	return r.CreatorInNamespace("", name, version)
}

// CreatorInNamespace looks a creator up.
func (r *Registry) CreatorInNamespace(namespace, name, version string) (Creator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, found := r.creators[CreatorKey{Namespace: namespace, Name: name, Version: version}]
	return c, found
}

// Creators returns the registered creators in registration order.
func (r *Registry) Creators() []Creator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	creators := make([]Creator, 0, len(r.order))
	for _, key := range r.order {
		creators = append(creators, r.creators[key])
	}
	return creators
}

// CreatePlugin builds an operator with the creator registered under name/version.
//
// A creator signals a malformed attribute set by panicking; CreatePlugin reports that as an
// error instead, so the host can reject the graph without crashing.
//
// Arguments:
//   - name: The creator name.
//   - version: The creator version.
//   - layerName: The name of the layer the operator is built for.
//   - fields: The operator attributes.
//
// Returns:
//   - Plugin: The new operator.
//   - error: An error if no such creator exists or the attributes are rejected.
func (r *Registry) CreatePlugin(name, version, layerName string, fields FieldCollection) (Plugin, error) {
	c, found := r.Creator(name, version)
	if !found {
		return nil, fmt.Errorf("no operator creator registered for %s/%s", name, version)
	}
	var p Plugin
	err := exceptions.TryCatch[error](func() { p = c.CreatePlugin(layerName, fields) })
	if err != nil {
		return nil, errors.WithMessagef(err, "creating %q with %s", layerName, KeyOf(c))
	}
	return p, nil
}

// DeserializePlugin rebuilds an operator from a serialized image with the creator registered
// under name/version. Rejected images are reported as errors, see CreatePlugin.
func (r *Registry) DeserializePlugin(name, version, layerName string, data []byte) (Plugin, error) {
	c, found := r.Creator(name, version)
	if !found {
		return nil, fmt.Errorf("no operator creator registered for %s/%s", name, version)
	}
	var p Plugin
	err := exceptions.TryCatch[error](func() { p = c.DeserializePlugin(layerName, data) })
	if err != nil {
		return nil, errors.WithMessagef(err, "deserializing %q with %s", layerName, KeyOf(c))
	}
	return p, nil
}
