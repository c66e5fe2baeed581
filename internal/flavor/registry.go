package flavor

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

//go:embed resources/*.toml
var embeddedResources embed.FS

// Layer identifies one of the four precedence layers from §4.3,
// lowest to highest.
type Layer int

const (
	LayerEmbedded Layer = iota
	LayerUserGlobal
	LayerWorkspace
	LayerCallerConfig
	numLayers
)

func (l Layer) String() string {
	switch l {
	case LayerEmbedded:
		return "embedded"
	case LayerUserGlobal:
		return "user-global"
	case LayerWorkspace:
		return "workspace"
	case LayerCallerConfig:
		return "caller-config"
	default:
		return "unknown"
	}
}

// entry holds, per flavor name, the contribution of each layer plus the
// currently-active merged result. Layers are merged low to high, per
// command, rather than one layer replacing the whole flavor: a higher
// layer overrides only the commands it redefines, per §4.3's "a name
// collision across layers is resolved by the higher layer replacing
// the earlier entry" read together with §8's Flavor precedence
// invariant (a command present only in a lower layer must still be
// visible through the active flavor).
type entry struct {
	mu     sync.Mutex
	layers [numLayers]*Flavor
	active atomic.Pointer[Flavor]
}

func (e *entry) install(l Layer, f Flavor) {
	e.mu.Lock()
	e.layers[l] = &f
	active := mergeLayers(e.layers[:])
	e.mu.Unlock()
	e.active.Store(active)
}

// mergeLayers folds every non-nil layer, low to high, into one Flavor:
// metadata (name/version/description) and each command come from the
// highest layer that contributes them, while commands left untouched
// by a higher layer keep surviving from whichever lower layer defined
// them.
func mergeLayers(layers []*Flavor) *Flavor {
	merged := Flavor{Commands: make(map[string]CommandDef)}
	seen := false
	for _, fl := range layers {
		if fl == nil {
			continue
		}
		seen = true
		merged.Name = fl.Name
		if fl.Version != "" {
			merged.Version = fl.Version
		}
		if fl.Description != "" {
			merged.Description = fl.Description
		}
		for code, cmd := range fl.Commands {
			merged.Commands[code] = cmd
		}
	}
	if !seen {
		return nil
	}
	return &merged
}

// Registry is the process-wide, many-readers-one-writer store of
// loaded flavors. It is injected into the document service rather than
// accessed as a singleton, per Design Notes §9.
type Registry struct {
	mu        sync.RWMutex
	named     map[string]*entry
	logger    *logrus.Logger
	callbacks []func(name string)
	cbMu      sync.Mutex
}

// New constructs an empty Registry. Call LoadEmbedded, then LoadDir for
// each configured directory, to populate it.
func New(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		named:  make(map[string]*entry),
		logger: logger,
	}
}

func (r *Registry) entryFor(name string) *entry {
	key := strings.ToUpper(name)
	r.mu.RLock()
	e, ok := r.named[key]
	r.mu.RUnlock()
	if ok {
		return e
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok = r.named[key]
	if !ok {
		e = &entry{}
		r.named[key] = e
	}
	return e
}

// install atomically swaps the named flavor's contribution at layer l,
// then notifies subscribers. Readers never observe the previous
// layers[l] pointer and the new one simultaneously visible as a mix —
// entry.active always points at one fully-constructed Flavor.
func (r *Registry) install(l Layer, f Flavor) {
	r.entryFor(f.Name).install(l, f)
	r.notify(f.Name)
}

func (r *Registry) notify(name string) {
	r.cbMu.Lock()
	cbs := append([]func(string){}, r.callbacks...)
	r.cbMu.Unlock()
	for _, cb := range cbs {
		cb(name)
	}
}

// Subscribe registers a callback invoked (synchronously, on the
// goroutine that triggered the reload) whenever a flavor is installed
// or re-installed at any layer.
func (r *Registry) Subscribe(callback func(name string)) {
	r.cbMu.Lock()
	r.callbacks = append(r.callbacks, callback)
	r.cbMu.Unlock()
}

// Get returns the currently active merged Flavor for name, or
// ok=false if no layer has ever contributed one.
func (r *Registry) Get(name string) (*Flavor, bool) {
	r.mu.RLock()
	e, ok := r.named[strings.ToUpper(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	f := e.active.Load()
	if f == nil {
		return nil, false
	}
	return f, true
}

// ListNames returns every flavor name known to the registry,
// regardless of which layer last contributed.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.named))
	for _, e := range r.named {
		if f := e.active.Load(); f != nil {
			names = append(names, f.Name)
		}
	}
	return names
}

// LoadEmbedded installs the flavors compiled into the binary at
// LayerEmbedded. If the embedded TOML fails to parse — which should
// never happen in a released binary — it logs and falls back to a
// minimal hand-built prusa flavor, mirroring the original source's
// add_minimal_prusa_flavor fallback.
func (r *Registry) LoadEmbedded() error {
	entries, err := embeddedResources.ReadDir("resources")
	if err != nil {
		return fmt.Errorf("listing embedded flavor resources: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := embeddedResources.ReadFile(filepath.Join("resources", e.Name()))
		if err != nil {
			r.logger.WithError(err).WithField("resource", e.Name()).Error("reading embedded flavor resource")
			continue
		}
		var ff file
		if _, err := toml.Decode(string(data), &ff); err != nil {
			r.logger.WithError(err).WithField("resource", e.Name()).Error("parsing embedded flavor, skipping")
			continue
		}
		if ff.Flavor.Name == "" {
			r.logger.WithField("resource", e.Name()).Error("embedded flavor missing [flavor] name, skipping")
			continue
		}
		r.install(LayerEmbedded, fromFile(ff))
		loaded++
	}
	if loaded == 0 {
		r.logger.Error("no embedded flavors parsed, falling back to minimal prusa flavor")
		r.install(LayerEmbedded, minimalPrusaFlavor())
	}
	return nil
}

// LoadDir scans dir (non-recursively) and installs, at layer l, one
// Flavor per *.toml file found directly in dir, and one Flavor per
// subdirectory treated as a fragment directory (§4.3). A directory
// that does not exist is not an error — that layer simply contributes
// nothing.
func (r *Registry) LoadDir(l Layer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading flavor directory %s: %w", dir, err)
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			fl, err := loadFragmentDir(full)
			if err != nil {
				r.logger.WithError(err).WithField("dir", full).Error("loading fragment directory, skipping")
				continue
			}
			r.install(l, fl)
			continue
		}
		if !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		fl, err := loadSingleFile(full)
		if err != nil {
			r.logger.WithError(err).WithField("file", full).Error("loading flavor file, skipping")
			continue
		}
		r.install(l, fl)
	}
	return nil
}

// ReloadFrom re-scans dir at layer l, reinstalling whatever it finds.
// It is the entry point the filesystem watcher (internal/watch) calls
// on a debounced change event; on a load failure the previous
// good flavor remains active (LoadDir/install never remove an entry,
// they only ever replace one with a fully-constructed successor).
func (r *Registry) ReloadFrom(l Layer, dir string) error {
	return r.LoadDir(l, dir)
}

// minimalPrusaFlavor is the last-resort fallback when even the
// embedded TOML cannot be parsed: a tiny hand-built command set,
// grounded on the original source's add_minimal_prusa_flavor().
func minimalPrusaFlavor() Flavor {
	return Flavor{
		Name:        "prusa",
		Version:     "0",
		Description: "minimal built-in fallback flavor",
		Commands: map[string]CommandDef{
			"G0": {
				Name:             "G0",
				DescriptionShort: "Rapid move",
				Parameters: []ParameterDef{
					{Name: "X", Type: TypeFloat, Description: "X axis target"},
					{Name: "Y", Type: TypeFloat, Description: "Y axis target"},
					{Name: "Z", Type: TypeFloat, Description: "Z axis target"},
					{Name: "F", Type: TypeFloat, Description: "Feed rate"},
				},
			},
			"G1": {
				Name:             "G1",
				DescriptionShort: "Linear move",
				Parameters: []ParameterDef{
					{Name: "X", Type: TypeFloat, Description: "X axis target"},
					{Name: "Y", Type: TypeFloat, Description: "Y axis target"},
					{Name: "Z", Type: TypeFloat, Description: "Z axis target"},
					{Name: "E", Type: TypeFloat, Description: "Extruder position"},
					{Name: "F", Type: TypeFloat, Description: "Feed rate"},
				},
			},
			"M104": {
				Name:             "M104",
				DescriptionShort: "Set hotend temperature",
				Parameters: []ParameterDef{
					{Name: "S", Type: TypeInt, Required: true, Description: "Target temperature in degrees Celsius"},
				},
			},
		},
	}
}
