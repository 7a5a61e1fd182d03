package renderer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kjkrol/gohandoff/internal/platform"
	"github.com/kjkrol/gohandoff/pkg/handoff"
)

const (
	NameSoftware = "software"
	NameGL       = "gl"
)

// Factory builds a renderer from its config. The renderer must not touch
// the graphics API until Init, which runs on the render thread.
type Factory func(conf Config) (handoff.Renderer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a renderer available by name. A later registration with
// the same name replaces the earlier one.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Available lists registered renderer names in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the renderer registered under conf.Name.
func New(conf Config) (handoff.Renderer, error) {
	conf = conf.withDefaults()
	mu.RLock()
	f, ok := factories[conf.Name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("renderer: unknown renderer %q (available: %v)", conf.Name, Available())
	}
	r, err := f(conf)
	if err != nil {
		return nil, fmt.Errorf("renderer: create %s: %w", conf.Name, err)
	}
	return r, nil
}

// ForDriver picks the renderer matching a platform driver: the headless
// driver has no GL, native drivers prefer GL when it was compiled in.
func ForDriver(driver string) string {
	if driver == platform.DriverHeadless {
		return NameSoftware
	}
	mu.RLock()
	defer mu.RUnlock()
	if _, ok := factories[NameGL]; ok {
		return NameGL
	}
	return NameSoftware
}
