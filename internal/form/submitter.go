package form

import (
	"fmt"
)

// Transport delivers outbound requests to the backend. Emit must not block
// on the network.
type Transport interface {
	Emit(event string, payload any) error
	Connected() bool
}

// ModeSwitcher moves the presentation layer to another view.
type ModeSwitcher interface {
	SwitchTo(mode int)
}

// Notifier delivers a validation message to the user before returning.
type Notifier interface {
	Notify(message string)
}

// ModeSwitcherFunc adapts a function to ModeSwitcher.
type ModeSwitcherFunc func(mode int)

func (f ModeSwitcherFunc) SwitchTo(mode int) { f(mode) }

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Request is the payload of one outbound REQUEST event. Data is a private
// copy taken at submit time.
type Request struct {
	Action Action   `json:"action"`
	Data   Snapshot `json:"data"`
}

// Submitter gates and sends the requests of one form kind.
type Submitter struct {
	def       *Definition
	transport Transport
	modes     ModeSwitcher
	notifier  Notifier
}

// NewSubmitter creates a Submitter for kind.
func NewSubmitter(kind Kind, transport Transport, modes ModeSwitcher, notifier Notifier) (*Submitter, error) {
	def, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return &Submitter{def: def, transport: transport, modes: modes, notifier: notifier}, nil
}

// Label is the text of the submit control for the current connection state.
func (s *Submitter) Label() string {
	if !s.transport.Connected() {
		return "DISCONNECTED"
	}
	return string(s.def.Action)
}

// Enabled reports whether submission is currently possible.
func (s *Submitter) Enabled() bool {
	return s.transport.Connected()
}

// Submit validates snap and, when valid, switches the view to pending and
// emits exactly one request. On a validation failure the notifier is called
// once and the ValidationError is returned; nothing is emitted.
func (s *Submitter) Submit(snap Snapshot) (*Request, error) {
	if !s.transport.Connected() {
		return nil, ErrDisconnected
	}
	if err := s.def.Validate(snap); err != nil {
		s.notifier.Notify(err.Error())
		return nil, err
	}

	req := &Request{Action: s.def.Action, Data: snap.Clone()}
	s.modes.SwitchTo(ModePending)
	if err := s.transport.Emit(EventRequest, req); err != nil {
		return nil, fmt.Errorf("emit %s request: %w", req.Action, err)
	}
	return req, nil
}
