// Package persist stores NodeTree documents and preferences on local disk.
//
// Storage is organised in profiles: ten numbered slots, each holding one
// nodetree document, plus a preferences document that records the active
// profile.
//
//	<root>/preferences.json
//	<root>/nodetrees/nodetree_0.json
//	...
//	<root>/nodetrees/nodetree_9.json
//
// The root is chosen by [Resolve] from an ordered candidate list. When no
// candidate is writable the [Store] runs disabled: loads return defaults and
// saves do nothing.
//
// Reads are lazy and cached until [Store.Invalidate] or a profile switch.
// The store distinguishes two read failures. A document that cannot be
// decoded is replaced by a fresh default and a warning is logged. A file
// that cannot be read at all makes the call unavailable: it returns false
// and logs an error. Neither is returned as an error.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/nodetree"
	"github.com/matzehuels/visiongraph/pkg/observability"
)

// Preferences is the preferences document.
type Preferences struct {
	Profile int `json:"profile"`
}

// DefaultPreferences returns the preferences used when none are stored.
func DefaultPreferences() *Preferences {
	return &Preferences{Profile: apperr.MinProfile}
}

// Options configures [Open].
type Options struct {
	// Override is tried before the built-in candidates.
	Override string
	// Candidates replaces the candidate list entirely when set.
	Candidates []string
	Logger     *log.Logger
}

// Store is the persistence store. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	backend Backend
	enabled bool
	logger  *log.Logger

	profile int
	tree    *nodetree.NodeTree
	prefs   *Preferences
}

// Open resolves a storage root and loads the active profile from the stored
// preferences. It never fails; without a usable root the store is disabled.
func Open(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	candidates := opts.Candidates
	if candidates == nil {
		candidates = Candidates(opts.Override)
	}

	if root, ok := Resolve(candidates, logger); ok {
		return NewStore(NewFileBackend(root), logger)
	}
	logger.Error("no writable storage location, persistence disabled", "candidates", candidates)
	return NewStore(nil, logger)
}

// NewStore returns a store over backend. A nil backend disables the store.
func NewStore(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{backend: backend, enabled: backend != nil, logger: logger}
	if backend == nil {
		s.backend = NullBackend{}
	}
	if prefs, ok := s.Preferences(); ok {
		s.profile = prefs.Profile
	}
	return s
}

// Enabled reports whether documents are persisted.
func (s *Store) Enabled() bool { return s.enabled }

// Root returns the storage root, or "" when disabled.
func (s *Store) Root() string { return s.backend.Root() }

// Profile returns the active profile.
func (s *Store) Profile() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// NodeTree returns the active profile's document. The second result is
// false when the file could not be read.
func (s *Store) NodeTree() (*nodetree.NodeTree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree != nil {
		observability.Store().OnLoad("nodetree", true, nil)
		return s.cachedTree(), true
	}
	name := NodeTreeFile(s.profile)
	data, ok := s.read("nodetree", name)
	if !ok {
		return nil, false
	}

	t := nodetree.New()
	if len(bytes.TrimSpace(data)) > 0 {
		decoded, err := nodetree.Decode(bytes.NewReader(data))
		if err != nil {
			s.logger.Warn("invalid nodetree document, using empty tree", "file", name, "err", err)
		} else {
			t = decoded
		}
	}
	s.tree = t
	return s.cachedTree(), true
}

// cachedTree returns a copy of the cached document so callers cannot
// mutate the cache.
func (s *Store) cachedTree() *nodetree.NodeTree {
	t, err := s.tree.Clone()
	if err != nil {
		s.logger.Warn("cached nodetree not reusable, using empty tree", "err", err)
		return nodetree.New()
	}
	return t
}

// SaveNodeTree writes t as the active profile's document.
func (s *Store) SaveNodeTree(t *nodetree.NodeTree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := nodetree.Write(t, &buf); err != nil {
		return err
	}
	data := buf.Bytes()
	if err := s.write("nodetree", NodeTreeFile(s.profile), data); err != nil {
		return err
	}
	cached, err := nodetree.Decode(bytes.NewReader(data))
	if err != nil {
		s.tree = nil
		return nil
	}
	s.tree = cached
	return nil
}

// Preferences returns the preferences document. The second result is false
// when the file could not be read.
func (s *Store) Preferences() (*Preferences, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPrefs()
}

func (s *Store) loadPrefs() (*Preferences, bool) {
	if s.prefs != nil {
		observability.Store().OnLoad("preferences", true, nil)
		p := *s.prefs
		return &p, true
	}
	data, ok := s.read("preferences", PreferencesFile)
	if !ok {
		return nil, false
	}

	prefs := DefaultPreferences()
	if len(bytes.TrimSpace(data)) > 0 {
		var p Preferences
		err := json.Unmarshal(data, &p)
		if err == nil {
			err = apperr.ValidateProfile(p.Profile)
		}
		if err != nil {
			s.logger.Warn("invalid preferences document, using defaults", "file", PreferencesFile, "err", err)
		} else {
			prefs = &p
		}
	}
	s.prefs = prefs
	p := *prefs
	return &p, true
}

// SavePreferences writes the preferences document. It does not change the
// active profile; use [Store.SetProfile] for that.
func (s *Store) SavePreferences(p *Preferences) error {
	if err := apperr.ValidateProfile(p.Profile); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savePrefs(p)
}

func (s *Store) savePrefs(p *Preferences) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := s.write("preferences", PreferencesFile, data); err != nil {
		return err
	}
	cp := *p
	s.prefs = &cp
	return nil
}

// SetProfile makes n the active profile. The cached nodetree is dropped so
// the next [Store.NodeTree] reads the new profile's file, and the choice is
// written to the preferences document immediately. Only an invalid profile
// number is an error; a failed preferences write is logged and the switch
// holds for the lifetime of the store.
func (s *Store) SetProfile(n int) error {
	if err := apperr.ValidateProfile(n); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.profile
	s.profile = n
	s.tree = nil

	prefs, ok := s.loadPrefs()
	if !ok {
		prefs = DefaultPreferences()
	}
	prefs.Profile = n
	if err := s.savePrefs(prefs); err != nil {
		s.logger.Warn("active profile not persisted", "profile", n, "err", err)
		s.prefs = prefs
	}
	observability.Store().OnProfileSwitch(from, n)
	s.logger.Info("profile switched", "from", from, "to", n)
	return nil
}

// Invalidate drops every cached document.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = nil
	s.prefs = nil
}

// read loads a document from the backend. A disabled store yields an empty
// document.
func (s *Store) read(kind, name string) ([]byte, bool) {
	data, err := s.backend.Read(name)
	observability.Store().OnLoad(kind, false, err)
	if errors.Is(err, ErrDisabled) {
		return nil, true
	}
	if err != nil {
		s.logger.Error("storage unavailable", "file", name, "err", err)
		return nil, false
	}
	return data, true
}

func (s *Store) write(kind, name string, data []byte) error {
	err := s.backend.Write(name, data)
	observability.Store().OnSave(kind, len(data), err)
	if err != nil {
		s.logger.Error("storage write failed", "file", name, "err", err)
		return apperr.Wrap(apperr.ErrCodeUnavailable, err, "save %s", name)
	}
	return nil
}
