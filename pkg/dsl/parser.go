package dsl

import (
	"fmt"
	"strings"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// AllMarker in a collect tuple requests every match: [collect, path, all, selector].
const AllMarker = "all"

// ParseError ties a parse failure to the 1-based position of the tuple.
type ParseError struct {
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("action %d: %v", e.Index+1, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseErrors collects every invalid tuple of a script.
type ParseErrors []*ParseError

func (errs ParseErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (errs ParseErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// Parse converts raw tuples into actions and fails if any tuple is invalid.
func Parse(raw []any) ([]domain.Action, error) {
	actions := make([]domain.Action, 0, len(raw))
	var errs ParseErrors
	for i, item := range raw {
		action, err := parseItem(item)
		if err != nil {
			errs = append(errs, &ParseError{Index: i, Err: err})
			continue
		}
		actions = append(actions, action)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return actions, nil
}

// ParseLenient converts raw tuples into actions, keeping invalid tuples as
// domain.InvalidAction so their error is raised when execution reaches them.
func ParseLenient(raw []any) []domain.Action {
	actions := make([]domain.Action, 0, len(raw))
	for _, item := range raw {
		action, err := parseItem(item)
		if err != nil {
			tuple, _ := asList(item)
			action = domain.InvalidAction{Raw: tuple, Err: err}
		}
		actions = append(actions, action)
	}
	return actions
}

func parseItem(item any) (domain.Action, error) {
	tuple, ok := asList(item)
	if !ok {
		return nil, domain.NewConfigError(domain.ErrInvalidArguments, "action must be a list, got %T", item)
	}
	return ParseAction(tuple)
}

// ParseAction converts one [verb, ...args] tuple.
func ParseAction(tuple []any) (domain.Action, error) {
	if len(tuple) == 0 {
		return nil, domain.NewConfigError(domain.ErrInvalidArguments, "empty action")
	}
	verb, ok := tuple[0].(string)
	if !ok {
		return nil, domain.NewConfigError(domain.ErrUnknownActionType, "%v", tuple[0])
	}
	args := tuple[1:]

	switch domain.Kind(verb) {
	case domain.KindDriver:
		call, err := parseDriverCall(args)
		if err != nil {
			return nil, err
		}
		return domain.DriverAction{Call: call}, nil
	case domain.KindCollect:
		return parseCollect(args)
	case domain.KindFallback:
		return parseFallback(args)
	}
	return nil, domain.NewConfigError(domain.ErrUnknownActionType, "%q", verb)
}

func parseDriverCall(args []any) (domain.DriverCall, error) {
	if len(args) == 0 {
		return domain.DriverCall{}, invalid("driver action needs a method")
	}
	method, _ := args[0].(string)
	op := domain.DriverOp(method)
	if !op.Valid() {
		return domain.DriverCall{}, domain.NewConfigError(domain.ErrUnknownDriverMethod, "%v", args[0])
	}
	rest := args[1:]
	call := domain.DriverCall{Op: op}

	switch op {
	case domain.OpNavigate:
		if len(rest) != 1 {
			return call, invalid("navigate takes a url")
		}
		url, ok := rest[0].(string)
		if !ok || url == "" {
			return call, invalid("navigate url must be a non-empty string")
		}
		call.URL = url
	case domain.OpWrite:
		if len(rest) != 2 {
			return call, invalid("write takes a selector and a text")
		}
		sel, err := ParseSelector(rest[0])
		if err != nil {
			return call, err
		}
		text, err := scalar(rest[1])
		if err != nil {
			return call, err
		}
		call.Selector, call.Text = sel, text
	case domain.OpClick:
		if len(rest) != 1 {
			return call, invalid("click takes a selector")
		}
		sel, err := ParseSelector(rest[0])
		if err != nil {
			return call, err
		}
		call.Selector = sel
	case domain.OpRead, domain.OpFind:
		sel, multiple, err := parseReadArgs(rest)
		if err != nil {
			return call, err
		}
		call.Selector, call.Multiple = sel, multiple
	}
	return call, nil
}

func parseCollect(args []any) (domain.Action, error) {
	if len(args) < 2 {
		return nil, invalid("collect takes a path and a selector")
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, invalid("collect path must be a string")
	}
	if _, err := domain.SplitPath(path); err != nil {
		return nil, err
	}
	sel, multiple, err := parseReadArgs(args[1:])
	if err != nil {
		return nil, err
	}
	return domain.CollectAction{Path: path, Selector: sel, Multiple: multiple}, nil
}

// parseReadArgs accepts "selector", "selector, multiple", "all, selector"
// and a bare "by, value" pair.
func parseReadArgs(args []any) (domain.Selector, bool, error) {
	if len(args) == 2 {
		if marker, ok := args[0].(string); ok && marker == AllMarker {
			sel, err := ParseSelector(args[1])
			return sel, true, err
		}
		// Unbracketed pair: [collect, path, css, span].
		if by, ok := args[0].(string); ok && domain.SelectorStrategy(by).Valid() {
			if value, ok := args[1].(string); ok {
				sel, err := ParseSelector([]any{by, value})
				return sel, false, err
			}
		}
		sel, err := ParseSelector(args[0])
		if err != nil {
			return sel, false, err
		}
		multiple, ok := args[1].(bool)
		if !ok {
			return sel, false, invalid("multiple flag must be a boolean")
		}
		return sel, multiple, nil
	}
	if len(args) != 1 {
		return domain.Selector{}, false, invalid("expected a selector and an optional multiple flag")
	}
	sel, err := ParseSelector(args[0])
	return sel, false, err
}

func parseFallback(args []any) (domain.Action, error) {
	if len(args) == 0 {
		return nil, invalid("fallback needs an inner action")
	}
	if verb, _ := args[0].(string); domain.Kind(verb) == domain.KindFallback {
		return nil, &domain.ConfigError{Err: domain.ErrNestedFallback}
	}
	inner, err := ParseAction(args)
	if err != nil {
		return nil, err
	}
	return domain.FallbackAction{Inner: inner}, nil
}

// ParseSelector accepts an xpath string, a "by=value" string, a [by, value]
// pair or a {by, value} map.
func ParseSelector(v any) (domain.Selector, error) {
	var sel domain.Selector
	switch s := v.(type) {
	case string:
		sel = domain.XPath(s)
		if by, value, found := strings.Cut(s, "="); found && domain.SelectorStrategy(by).Valid() {
			sel = domain.Selector{By: domain.SelectorStrategy(by), Value: value}
		}
	case map[string]any:
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &sel,
			ErrorUnused: true,
		})
		if err != nil {
			return sel, err
		}
		if err := dec.Decode(s); err != nil {
			return sel, invalid("selector: %v", err)
		}
	default:
		pair, ok := asList(v)
		if !ok || len(pair) != 2 {
			return sel, invalid("selector must be a string, a [by, value] pair or a map, got %v", v)
		}
		by, okBy := pair[0].(string)
		value, okValue := pair[1].(string)
		if !okBy || !okValue {
			return sel, invalid("selector pair must hold two strings")
		}
		sel = domain.Selector{By: domain.SelectorStrategy(by), Value: value}
	}

	if sel.By == "" {
		sel.By = domain.ByXPath
	}
	if !sel.By.Valid() {
		return sel, invalid("unknown selector strategy %q", sel.By)
	}
	if sel.Value == "" {
		return sel, invalid("empty selector")
	}
	return sel, nil
}

func scalar(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case bool, int, int64, float64, fmt.Stringer:
		return fmt.Sprint(s), nil
	}
	return "", invalid("expected a text value, got %T", v)
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	}
	return nil, false
}

func invalid(format string, args ...any) error {
	return domain.NewConfigError(domain.ErrInvalidArguments, format, args...)
}
