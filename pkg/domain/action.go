package domain

// Kind is the verb that selects an action handler.
type Kind string

const (
	KindDriver   Kind = "driver"
	KindCollect  Kind = "collect"
	KindFallback Kind = "fallback"
)

// DriverOp enumerates the driver operations an action may invoke.
type DriverOp string

const (
	OpNavigate DriverOp = "navigate"
	OpWrite    DriverOp = "write"
	OpRead     DriverOp = "read"
	OpClick    DriverOp = "click"
	OpFind     DriverOp = "find"
)

// DriverOps lists every supported driver operation.
var DriverOps = []DriverOp{OpNavigate, OpWrite, OpRead, OpClick, OpFind}

// Valid reports whether op is a supported driver operation.
func (op DriverOp) Valid() bool {
	for _, known := range DriverOps {
		if op == known {
			return true
		}
	}
	return false
}

// Action is a single parsed instruction of a task script.
// The set of implementations is closed: DriverAction, CollectAction,
// FallbackAction and InvalidAction.
type Action interface {
	Kind() Kind
	isAction()
}

// DriverCall carries the typed arguments of one driver operation.
// Only the fields relevant to Op are set.
type DriverCall struct {
	Op       DriverOp `json:"op"`
	URL      string   `json:"url,omitempty"`
	Selector Selector `json:"selector,omitempty"`
	Text     string   `json:"text,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

// DriverAction forwards a call to the driver.
type DriverAction struct {
	Call DriverCall
}

// CollectAction reads from the page and stores the value at Path.
type CollectAction struct {
	Path     string
	Selector Selector
	Multiple bool
}

// FallbackAction runs Inner only when the immediately preceding action failed.
// Inner is always a DriverAction or a CollectAction.
type FallbackAction struct {
	Inner Action
}

// InvalidAction is a tuple that did not parse. It is kept in place so the
// error surfaces when execution reaches its index.
type InvalidAction struct {
	Raw []any
	Err error
}

func (DriverAction) Kind() Kind   { return KindDriver }
func (CollectAction) Kind() Kind  { return KindCollect }
func (FallbackAction) Kind() Kind { return KindFallback }

// Kind returns the verb of the raw tuple when it is a string.
func (a InvalidAction) Kind() Kind {
	if len(a.Raw) > 0 {
		if s, ok := a.Raw[0].(string); ok {
			return Kind(s)
		}
	}
	return ""
}

func (DriverAction) isAction()   {}
func (CollectAction) isAction()  {}
func (FallbackAction) isAction() {}
func (InvalidAction) isAction()  {}

// Navigate builds a navigate driver action.
func Navigate(url string) DriverAction {
	return DriverAction{Call: DriverCall{Op: OpNavigate, URL: url}}
}

// Write builds a write driver action.
func Write(sel Selector, text string) DriverAction {
	return DriverAction{Call: DriverCall{Op: OpWrite, Selector: sel, Text: text}}
}

// Click builds a click driver action.
func Click(sel Selector) DriverAction {
	return DriverAction{Call: DriverCall{Op: OpClick, Selector: sel}}
}

// Collect builds a single-element collect action.
func Collect(path string, sel Selector) CollectAction {
	return CollectAction{Path: path, Selector: sel}
}

// Fallback wraps inner in a fallback action.
func Fallback(inner Action) FallbackAction {
	return FallbackAction{Inner: inner}
}
