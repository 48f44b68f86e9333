package ibus

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"keying/internal/ime"
	"keying/internal/logging"
)

// Factory implements the org.freedesktop.IBus.Factory interface. IBus asks
// it for an engine object each time an input context selects the engine.
type Factory struct {
	mu       sync.Mutex
	bus      Bus
	name     string
	opts     ime.Options
	observer ime.Observer
	log      *logging.Logger
	nextID   uint32
	engines  map[dbus.ObjectPath]*Engine
}

// NewFactory creates a factory serving engineName.
func NewFactory(bus Bus, engineName string, opts ime.Options, log *logging.Logger) *Factory {
	if log == nil {
		log = logging.Default()
	}
	return &Factory{
		bus:     bus,
		name:    engineName,
		opts:    opts,
		log:     log,
		engines: make(map[dbus.ObjectPath]*Engine),
	}
}

// Export publishes the factory on the bus.
func (f *Factory) Export() error {
	if err := f.bus.Export(f, FactoryPath, FactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}
	return nil
}

// SetObserver sets the observer given to current and future engines.
func (f *Factory) SetObserver(o ime.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = o
	for _, e := range f.engines {
		e.SetObserver(o)
	}
}

// SetOptions applies opts to current and future engines.
func (f *Factory) SetOptions(opts ime.Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = opts
	for _, e := range f.engines {
		e.SetOptions(opts)
	}
	f.log.Info("engine options updated", "engines", len(f.engines))
}

// CreateEngine creates a new engine instance for IBus.
func (f *Factory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if engineName != f.name {
		f.log.Warn("unknown engine requested", "engine", engineName)
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	f.nextID++
	path := dbus.ObjectPath(fmt.Sprintf("%s%d", EnginePathPrefix, f.nextID))
	e := NewEngine(f.bus, path, f.opts, f.log)
	if f.observer != nil {
		e.SetObserver(f.observer)
	}
	if err := f.bus.Export(e, path, EngineInterface); err != nil {
		f.log.Error("export engine failed", "path", path, "error", err)
		return "", dbus.MakeFailedError(err)
	}
	f.engines[path] = e
	f.log.Info("engine created", "path", path)
	return path, nil
}

// Destroy removes an engine object from the bus.
func (f *Factory) Destroy(path dbus.ObjectPath) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.engines[path]; !ok {
		return fmt.Errorf("no engine at %s", path)
	}
	delete(f.engines, path)
	// Exporting nil removes the object.
	return f.bus.Export(nil, path, EngineInterface)
}

// Engine returns the engine at path, if any.
func (f *Factory) Engine(path dbus.ObjectPath) (*Engine, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.engines[path]
	return e, ok
}

// Len returns the number of live engines.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}
