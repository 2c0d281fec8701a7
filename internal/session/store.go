// Package session holds the mutable editor state for one open session
// and the orchestration that turns "run" into a sandbox call plus
// state updates. The store is constructed explicitly and injected
// into its consumers; there is no package-level instance.
package session

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"codepad/internal/language"
	"codepad/internal/sandbox"
)

// Font size bounds enforced by SetFontSize regardless of caller input.
const (
	MinFontSize = 12
	MaxFontSize = 24
)

// EmptyCodeError is the user-visible error for a run with no code. It
// is set locally, before any network activity.
const EmptyCodeError = "Code is empty"

// Executor runs source text remotely. *sandbox.Client satisfies it;
// tests substitute fakes.
type Executor interface {
	Execute(ctx context.Context, languageID, sourceText string) (sandbox.Result, error)
}

// Defaults seed a store when the local state holds no preferences.
type Defaults struct {
	Language string
	Theme    string
	FontSize int
}

// Snapshot is an immutable view of store state handed to observers.
type Snapshot struct {
	Language   string
	Theme      string
	FontSize   int
	Output     string
	Error      string
	IsRunning  bool
	LastResult *sandbox.Result
}

// Status derives the presentation label for the run state machine:
// ready, running, passed or failed. It is not stored separately;
// failure is keyed off Error presence.
func (s Snapshot) Status() string {
	switch {
	case s.IsRunning:
		return "running"
	case s.Error != "":
		return "failed"
	case s.LastResult != nil:
		return "passed"
	default:
		return "ready"
	}
}

// Store holds the session state. All mutation goes through its own
// operations; observers are notified after every change.
type Store struct {
	registry *language.Registry
	exec     Executor
	local    LocalStore

	mu         sync.Mutex
	language   string
	theme      string
	fontSize   int
	surface    EditorSurface
	isRunning  bool
	output     string
	lastError  string
	lastResult *sandbox.Result

	subMu sync.Mutex
	subs  map[int]func(Snapshot)
	nextS int
}

// NewStore creates a store, restoring preferences from the local
// store and falling back to the given defaults.
func NewStore(registry *language.Registry, exec Executor, local LocalStore, defaults Defaults) *Store {
	s := &Store{
		registry: registry,
		exec:     exec,
		local:    local,
		language: defaults.Language,
		theme:    defaults.Theme,
		fontSize: clampFontSize(defaults.FontSize),
		subs:     make(map[int]func(Snapshot)),
	}

	if v, ok := local.Get(keyLanguage); ok && registry.Has(v) {
		s.language = v
	}
	if v, ok := local.Get(keyTheme); ok {
		s.theme = v
	}
	if v, ok := local.Get(keyFontSize); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.fontSize = clampFontSize(n)
		}
	}

	return s
}

// Subscribe registers an observer called after every mutation. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextS
	s.nextS++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Language:   s.language,
		Theme:      s.theme,
		FontSize:   s.fontSize,
		Output:     s.output,
		Error:      s.lastError,
		IsRunning:  s.isRunning,
		LastResult: s.lastResult,
	}
}

// notify fans out the given snapshot without holding the state lock.
func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// BindSurface attaches the editor surface when the editor mounts. A
// durable buffer for the current language, if present, is pushed into
// the handle: saved work wins over whatever the surface holds.
func (s *Store) BindSurface(surface EditorSurface) {
	s.mu.Lock()
	s.surface = surface
	if saved, ok := s.local.Get(bufferKey(s.language)); ok && saved != "" {
		surface.SetValue(saved)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ReleaseSurface drops the handle on unmount. Subsequent Code() calls
// return "" until a new surface is bound.
func (s *Store) ReleaseSurface() {
	s.mu.Lock()
	s.surface = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Code returns the live buffer text, or "" if no surface is bound.
func (s *Store) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codeLocked()
}

func (s *Store) codeLocked() string {
	if s.surface == nil {
		return ""
	}
	return s.surface.Value()
}

// Language returns the current language ID.
func (s *Store) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage flushes the current buffer to its per-language slot,
// switches language, clears output and error (lastResult is history
// and stays), restores the new language's saved buffer or its default
// source into the bound surface, and persists the preference.
func (s *Store) SetLanguage(languageID string) error {
	cfg, err := s.registry.Get(languageID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.surface != nil {
		if current := s.surface.Value(); current != "" {
			s.local.Set(bufferKey(s.language), current)
		}
	}

	s.language = languageID
	s.output = ""
	s.lastError = ""
	s.local.Set(keyLanguage, languageID)

	if s.surface != nil {
		if saved, ok := s.local.Get(bufferKey(languageID)); ok && saved != "" {
			s.surface.SetValue(saved)
		} else {
			s.surface.SetValue(cfg.DefaultSource)
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// SetTheme updates and persists the theme preference.
func (s *Store) SetTheme(theme string) {
	s.mu.Lock()
	s.theme = theme
	s.local.Set(keyTheme, theme)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetFontSize clamps to [MinFontSize, MaxFontSize] and persists.
func (s *Store) SetFontSize(size int) {
	s.mu.Lock()
	s.fontSize = clampFontSize(size)
	s.local.Set(keyFontSize, strconv.Itoa(s.fontSize))
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Run is the orchestration entry point: read the buffer, call the
// sandbox, fold the result into state. isRunning is cleared on every
// exit path. Running is an advisory guard, not a lock: a second
// invocation while one is in flight abandons the first result
// (last write wins).
func (s *Store) Run(ctx context.Context) {
	s.mu.Lock()
	code := s.codeLocked()
	langID := s.language
	if strings.TrimSpace(code) == "" {
		s.lastError = EmptyCodeError
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	s.isRunning = true
	s.output = ""
	s.lastError = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
	}()

	result, err := s.exec.Execute(ctx, langID, code)
	if err != nil {
		log.Error().Err(err).Str("language", langID).Msg("execution client failed")
		result = sandbox.Result{
			SourceText: code,
			Outcome:    sandbox.OutcomeTransport,
			ErrorText:  sandbox.TransportErrorText,
		}
	}

	s.mu.Lock()
	s.lastResult = &result
	s.lastError = result.ErrorText
	s.output = result.Output
	s.mu.Unlock()
}

// LastResult returns the result of the most recent completed run, or
// nil if none has completed this session.
func (s *Store) LastResult() *sandbox.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func clampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}
