package service

import (
	"fmt"
	"strings"

	"github.com/fabtrain/console/internal/form"
	"github.com/rs/zerolog"
)

// LedgerService sends the read and seed requests that do not come from a
// form: list all trains, fetch one train, seed the sample ledger.
type LedgerService struct {
	transport form.Transport
	modes     form.ModeSwitcher
	log       zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(transport form.Transport, modes form.ModeSwitcher, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		transport: transport,
		modes:     modes,
		log:       log.With().Str("component", "ledger_service").Logger(),
	}
}

// Refresh asks the backend for every train.
func (s *LedgerService) Refresh() (*form.Request, error) {
	return s.send(form.ActionQueryAll, form.Snapshot{})
}

// Query asks the backend for a single train.
func (s *LedgerService) Query(id string) (*form.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, form.ErrMissingFields
	}
	return s.send(form.ActionQuery, form.Snapshot{form.FieldID: form.String(id)})
}

// InitLedger asks the backend to seed its sample trains.
func (s *LedgerService) InitLedger() (*form.Request, error) {
	return s.send(form.ActionInitLedger, form.Snapshot{})
}

func (s *LedgerService) send(action form.Action, data form.Snapshot) (*form.Request, error) {
	if !s.transport.Connected() {
		return nil, form.ErrDisconnected
	}

	req := &form.Request{Action: action, Data: data}
	s.modes.SwitchTo(form.ModePending)
	if err := s.transport.Emit(form.EventRequest, req); err != nil {
		return nil, fmt.Errorf("emit %s request: %w", action, err)
	}
	s.log.Debug().Str("action", string(action)).Msg("Request emitted")
	return req, nil
}
