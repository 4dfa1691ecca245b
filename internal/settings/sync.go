package settings

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle phase of a Synchronizer.
type State string

const (
	StateIdle      State = "IDLE"
	StateLoading   State = "LOADING"
	StateLoaded    State = "LOADED"
	StateLoadError State = "LOAD_ERROR"
	StateEditing   State = "EDITING"
	StateSaving    State = "SAVING"
	StateSaveError State = "SAVE_ERROR"
)

// ErrSaveInFlight is returned when Save is called while a save is running.
var ErrSaveInFlight = errors.New("settings: save already in flight")

// API is the remote settings surface the synchronizer talks to.
type API interface {
	FetchSettings(ctx context.Context, clientID string) (Document, error)
	SaveSettings(ctx context.Context, doc Document) error
}

// SavedConfirmTTL is how long Saved reports true after a successful save.
const SavedConfirmTTL = 2 * time.Second

// Synchronizer loads a tenant's settings document, holds an editable draft,
// and persists the full normalized document back. The most recently
// initiated load wins; a superseded load's result is discarded on arrival.
type Synchronizer struct {
	api API
	log *zap.Logger
	now func() time.Time

	mu       sync.Mutex
	state    State
	clientID string
	doc      Document
	draft    *Document
	errMsg   string
	loadGen  uint64
	saving   bool
	savedAt  time.Time
}

// NewSynchronizer creates a synchronizer in the Idle state.
func NewSynchronizer(api API, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		api:   api,
		log:   log,
		now:   time.Now,
		state: StateIdle,
	}
}

// Load fetches the settings document for a tenant. On failure the prior
// document and draft are left untouched and the raw error message is kept.
func (s *Synchronizer) Load(ctx context.Context, clientID string) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.state = StateLoading
	s.clientID = clientID
	s.mu.Unlock()

	doc, err := s.api.FetchSettings(ctx, clientID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		// A newer load superseded this one; its result is stale.
		s.log.Debug("discarding stale settings load", zap.String("client_id", clientID))
		return nil
	}
	if err != nil {
		s.state = StateLoadError
		s.errMsg = err.Error()
		return err
	}
	s.doc = doc
	s.draft = nil
	s.errMsg = ""
	s.state = StateLoaded
	return nil
}

// Edit applies a mutation to the draft, initializing it from the loaded
// document on first use.
func (s *Synchronizer) Edit(mutate func(*Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		copied := s.doc
		s.draft = &copied
	}
	mutate(s.draft)
	if s.state == StateLoaded || s.state == StateSaveError {
		s.state = StateEditing
	}
}

// SetDraft replaces the draft wholesale.
func (s *Synchronizer) SetDraft(doc Document) {
	s.Edit(func(d *Document) { *d = doc })
}

// Save normalizes the draft (or the loaded document when nothing was
// edited) and transmits the complete document. The draft survives a failed
// save so no edits are lost. Only one save may run at a time.
func (s *Synchronizer) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	source := s.doc
	if s.draft != nil {
		source = *s.draft
	}
	source.ClientID = s.clientID
	payload := Normalize(source)
	s.saving = true
	s.state = StateSaving
	s.mu.Unlock()

	err := s.api.SaveSettings(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		s.state = StateSaveError
		s.errMsg = err.Error()
		return err
	}
	s.doc = payload
	s.draft = nil
	s.errMsg = ""
	s.state = StateLoaded
	s.savedAt = s.now()
	return nil
}

// Document returns the last loaded (or saved) document.
func (s *Synchronizer) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Draft returns the current draft, falling back to the loaded document.
func (s *Synchronizer) Draft() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != nil {
		return *s.draft
	}
	return s.doc
}

// State returns the current lifecycle phase.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the raw message of the last load/save failure.
func (s *Synchronizer) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Saved reports the transient post-save confirmation; it clears on its own
// after SavedConfirmTTL.
func (s *Synchronizer) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.savedAt.IsZero() && s.now().Sub(s.savedAt) < SavedConfirmTTL
}
