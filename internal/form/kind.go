// Package form holds the request intake core of the console: per-kind
// field stores, the validators that gate submission, and the submitter that
// turns a valid snapshot into one outbound request.
package form

// Kind selects a form variant. Each kind owns a fixed field set, a validator
// and the action tag its requests carry.
type Kind string

const (
	KindCreate Kind = "create"
	KindChange Kind = "change"
)

// Action is the tag carried by an outbound request.
type Action string

const (
	ActionCreate     Action = "CREATE"
	ActionChange     Action = "CHANGE"
	ActionQuery      Action = "QUERY"
	ActionQueryAll   Action = "QUERY_ALL"
	ActionInitLedger Action = "INIT_LEDGER"
)

// EventRequest is the transport event name every outbound request uses.
const EventRequest = "REQUEST"

// Field names. They are case sensitive and match the backend payload keys.
const (
	FieldID        = "ID"
	FieldFname     = "fname"
	FieldGender    = "gender"
	FieldPlace     = "place"
	FieldClass     = "class"
	FieldStatus    = "status"
	FieldNewStatus = "newStatus"
)

// UI modes passed to the ModeSwitcher.
const (
	ModeFeed    = 0
	ModePending = 1
)

// Definition describes one form kind.
type Definition struct {
	Kind     Kind
	Action   Action
	Fields   []string
	Validate func(Snapshot) error
}

var definitions = map[Kind]*Definition{
	KindCreate: {
		Kind:     KindCreate,
		Action:   ActionCreate,
		Fields:   []string{FieldID, FieldFname, FieldGender, FieldPlace, FieldClass, FieldStatus},
		Validate: ValidateCreate,
	},
	KindChange: {
		Kind:     KindChange,
		Action:   ActionChange,
		Fields:   []string{FieldID, FieldNewStatus},
		Validate: ValidateChange,
	},
}

// Lookup returns the definition for kind.
func Lookup(kind Kind) (*Definition, bool) {
	def, ok := definitions[kind]
	return def, ok
}

// Has reports whether name is one of the declared fields.
func (d *Definition) Has(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Kinds lists the known form kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindCreate, KindChange}
}
