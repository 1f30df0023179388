package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fabtrain/console/internal/form"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrFormNotFound = errors.New("form not found")

// FormView is the externally visible state of an open form.
type FormView struct {
	ID        uuid.UUID     `json:"id"`
	Kind      form.Kind     `json:"kind"`
	Fields    []string      `json:"fields"`
	Values    form.Snapshot `json:"values"`
	Label     string        `json:"label"`
	Enabled   bool          `json:"enabled"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type formEntry struct {
	mu        sync.Mutex
	id        uuid.UUID
	store     *form.Store
	submitter *form.Submitter
	touched   time.Time
}

// FormService owns the open forms of the console. Each form has its own
// lock so a submit never interleaves with a field change on the same form.
type FormService struct {
	transport form.Transport
	modes     form.ModeSwitcher
	ttl       time.Duration
	log       zerolog.Logger
	now       func() time.Time

	mu    sync.Mutex
	forms map[uuid.UUID]*formEntry
}

// NewFormService creates a FormService. Forms idle for longer than ttl are
// removed by Sweep.
func NewFormService(transport form.Transport, modes form.ModeSwitcher, ttl time.Duration, log zerolog.Logger) *FormService {
	return &FormService{
		transport: transport,
		modes:     modes,
		ttl:       ttl,
		log:       log.With().Str("component", "form_service").Logger(),
		now:       time.Now,
		forms:     make(map[uuid.UUID]*formEntry),
	}
}

// Open creates an empty form of the given kind.
func (s *FormService) Open(kind form.Kind) (*FormView, error) {
	e, err := s.newEntry(kind)
	if err != nil {
		return nil, err
	}

	v := s.view(e)

	s.mu.Lock()
	s.forms[e.id] = e
	s.mu.Unlock()

	s.log.Debug().Str("form_id", e.id.String()).Str("kind", string(kind)).Msg("Form opened")
	return v, nil
}

// Get returns the current state of a form.
func (s *FormService) Get(id uuid.UUID) (*FormView, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.view(e), nil
}

// SetField replaces one field value. A nil value clears the field.
func (s *FormService) SetField(id uuid.UUID, name string, value *string) (*FormView, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Set(name, value); err != nil {
		return nil, err
	}
	e.touched = s.now()
	return s.view(e), nil
}

// Submit validates the form and, when valid, emits its request.
// Validation failures come back as *form.ValidationError.
func (s *FormService) Submit(id uuid.UUID) (*form.Request, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.touched = s.now()
	return e.submitter.Submit(e.store.Snapshot())
}

// SubmitOnce fills a throwaway form from values and submits it.
func (s *FormService) SubmitOnce(kind form.Kind, values map[string]*string) (*form.Request, error) {
	e, err := s.newEntry(kind)
	if err != nil {
		return nil, err
	}
	for name, v := range values {
		if err := e.store.Set(name, v); err != nil {
			return nil, err
		}
	}
	return e.submitter.Submit(e.store.Snapshot())
}

// Close discards a form.
func (s *FormService) Close(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[id]; !ok {
		return ErrFormNotFound
	}
	delete(s.forms, id)
	return nil
}

// Label returns the submit label for kind under the current connection state.
func (s *FormService) Label(kind form.Kind) string {
	if !s.transport.Connected() {
		return "DISCONNECTED"
	}
	def, ok := form.Lookup(kind)
	if !ok {
		return ""
	}
	return string(def.Action)
}

// Sweep removes forms idle for longer than the TTL and returns how many
// were removed.
func (s *FormService) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.forms {
		e.mu.Lock()
		stale := e.touched.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.forms, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (s *FormService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info().Int("count", n).Msg("Expired forms removed")
			}
		}
	}
}

func (s *FormService) newEntry(kind form.Kind) (*formEntry, error) {
	store, err := form.NewStore(kind)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	notifier := form.NotifierFunc(func(msg string) {
		s.log.Info().Str("form_id", id.String()).Str("kind", string(kind)).Str("reason", msg).Msg("Submission rejected")
	})

	submitter, err := form.NewSubmitter(kind, s.transport, s.modes, notifier)
	if err != nil {
		return nil, fmt.Errorf("new submitter: %w", err)
	}
	return &formEntry{id: id, store: store, submitter: submitter, touched: s.now()}, nil
}

func (s *FormService) lookup(id uuid.UUID) (*formEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.forms[id]
	if !ok {
		return nil, ErrFormNotFound
	}
	return e, nil
}

// view must be called with e.mu held.
func (s *FormService) view(e *formEntry) *FormView {
	def := e.store.Definition()
	return &FormView{
		ID:        e.id,
		Kind:      def.Kind,
		Fields:    append([]string(nil), def.Fields...),
		Values:    e.store.Snapshot(),
		Label:     e.submitter.Label(),
		Enabled:   e.submitter.Enabled(),
		UpdatedAt: e.touched,
	}
}
