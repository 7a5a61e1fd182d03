package platform

import (
	"fmt"
	"sort"
	"sync"
)

// Factory opens a driver. It runs on the calling (owner) thread.
type Factory func() (Driver, error)

const (
	DriverHeadless = "headless"
	DriverGLFW     = "glfw"
	DriverSDL      = "sdl"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// first registered name in this list wins when no name is given
	driverPriority = []string{DriverGLFW, DriverSDL, DriverHeadless}
)

// Register makes a driver available under name. Drivers call it from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Available returns the registered driver names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the named driver, or the highest priority registered driver
// when name is empty.
func Open(name string) (Driver, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	if name == "" {
		for _, candidate := range driverPriority {
			if factory, ok = factories[candidate]; ok {
				name = candidate
				break
			}
		}
	}
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("platform: driver %q not registered (available: %v)", name, Available())
	}
	driver, err := factory()
	if err != nil {
		return nil, fmt.Errorf("platform: open %s: %w", name, err)
	}
	return driver, nil
}
