// Package document implements the per-document state and positional
// query surface (hover/completion/document_symbols) described in §4.7,
// generalizing the teacher's sync.Map-keyed document table and
// providers from a view-tree project model to the G-code flavor model.
package document

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/graelo/gcode-language-server/internal/flavor"
	"github.com/graelo/gcode-language-server/internal/validate"
)

// FlavorSource names which precedence layer (§4.4) produced a
// document's active flavor.
type FlavorSource string

const (
	SourceModeline      FlavorSource = "modeline"
	SourceStartupConfig FlavorSource = "startup-default"
	SourceProjectConfig FlavorSource = "project-config"
	SourceFallback      FlavorSource = "fallback"
)

// FallbackFlavorName is the hard-coded last-resort flavor name (§4.4).
const FallbackFlavorName = "prusa"

// FlavorResolution records which layer won and what it resolved to.
type FlavorResolution struct {
	Source FlavorSource
	Name   string
	// Flavor is nil when Name could not be found in the registry: the
	// document is in degraded mode (§4.4).
	Flavor *flavor.Flavor
}

// Diagnostics pairs a diagnostic batch with the revision it was
// computed from, so callers can enforce the revision-ordering
// invariant from §4.7/§5 before publishing.
type Diagnostics struct {
	URI        string
	Revision   uint64
	Diagnostic []validate.Diagnostic
}

// document is the exclusively-owned, per-URI record. Mutations are
// serialized by mu; reads of different URIs never contend with each
// other since each document has its own lock (the sync.Map only
// guards the URI->*document mapping itself).
type document struct {
	mu         sync.Mutex
	uri        string
	text       string
	revision   uint64
	resolution FlavorResolution
	diags      []validate.Diagnostic
}

// Service owns every open document and resolves each one's active
// flavor against an injected Registry (Design Notes §9: never a
// singleton).
type Service struct {
	registry         *flavor.Registry
	logger           *logrus.Logger
	startupFlavor    string
	longDescriptions bool
	docs             sync.Map // uri (string) -> *document
	nextRevision     atomic.Uint64
}

// Config bundles the server-startup options that affect document
// resolution and hover formatting.
type Config struct {
	StartupFlavor    string
	LongDescriptions bool
}

// NewService constructs a Service bound to registry.
func NewService(registry *flavor.Registry, cfg Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		registry:         registry,
		logger:           logger,
		startupFlavor:    cfg.StartupFlavor,
		longDescriptions: cfg.LongDescriptions,
	}
}

// Open creates a document record, resolves its flavor, parses and
// validates it, and returns the first diagnostic batch.
func (s *Service) Open(uri, text string) Diagnostics {
	rev := s.nextRevision.Add(1)
	doc := &document{
		uri:      uri,
		text:     text,
		revision: rev,
	}
	doc.resolution = s.resolveFlavor(uri, text)
	doc.diags = validate.ValidateDocument(text, doc.resolution.Flavor)
	s.docs.Store(uri, doc)
	return Diagnostics{URI: uri, Revision: rev, Diagnostic: doc.diags}
}

// Change replaces a document's text in full (§4.7 mandates full sync
// only), bumps its revision, and re-parses/re-validates.
func (s *Service) Change(uri, newText string) (Diagnostics, bool) {
	v, ok := s.docs.Load(uri)
	if !ok {
		return Diagnostics{}, false
	}
	doc := v.(*document)

	doc.mu.Lock()
	defer doc.mu.Unlock()

	rev := s.nextRevision.Add(1)
	doc.text = newText
	doc.revision = rev
	doc.resolution = s.resolveFlavor(uri, newText)
	doc.diags = validate.ValidateDocument(newText, doc.resolution.Flavor)

	return Diagnostics{URI: uri, Revision: rev, Diagnostic: doc.diags}, true
}

// Close drops a document's record.
func (s *Service) Close(uri string) {
	s.docs.Delete(uri)
}

// Text returns a document's current text, for callers (the LSP
// handler layer) that need to convert a wire Position into a byte
// offset before calling Hover/Completion/DocumentSymbols.
func (s *Service) Text(uri string) (string, bool) {
	snap, ok := s.snapshot(uri)
	if !ok {
		return "", false
	}
	return snap.text, true
}

func (s *Service) get(uri string) (*document, bool) {
	v, ok := s.docs.Load(uri)
	if !ok {
		return nil, false
	}
	return v.(*document), true
}

// snapshot copies out the fields a read-only query needs, under the
// document's lock, so callers can work with a consistent view without
// holding the lock for the whole query.
type snapshot struct {
	text       string
	revision   uint64
	resolution FlavorResolution
}

func (s *Service) snapshot(uri string) (snapshot, bool) {
	doc, ok := s.get(uri)
	if !ok {
		return snapshot{}, false
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return snapshot{text: doc.text, revision: doc.revision, resolution: doc.resolution}, true
}

// resolveFlavor implements the §4.4 precedence chain: modeline beats
// the server's startup default, which beats the project config file,
// which beats the hard-coded fallback name. An unresolvable name at
// any layer simply falls through to the next one (§4.6).
func (s *Service) resolveFlavor(uri, text string) FlavorResolution {
	if name, ok := detectModeline(text); ok {
		if fl, ok := s.registry.Get(name); ok {
			return FlavorResolution{Source: SourceModeline, Name: name, Flavor: fl}
		}
		s.logger.WithField("uri", uri).WithField("flavor", name).
			Info("modeline names an unknown flavor, falling back to next precedence layer")
	}

	if s.startupFlavor != "" {
		if fl, ok := s.registry.Get(s.startupFlavor); ok {
			return FlavorResolution{Source: SourceStartupConfig, Name: s.startupFlavor, Flavor: fl}
		}
	}

	if name, ok := findProjectConfigFlavor(uri); ok {
		if fl, ok := s.registry.Get(name); ok {
			return FlavorResolution{Source: SourceProjectConfig, Name: name, Flavor: fl}
		}
	}

	fl, _ := s.registry.Get(FallbackFlavorName)
	return FlavorResolution{Source: SourceFallback, Name: FallbackFlavorName, Flavor: fl}
}

