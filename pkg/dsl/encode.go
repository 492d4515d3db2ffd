package dsl

import "github.com/aretw0/trawler/pkg/domain"

// Encode renders an action back into its tuple form.
func Encode(action domain.Action) []any {
	switch a := action.(type) {
	case domain.DriverAction:
		return append([]any{string(domain.KindDriver)}, encodeCall(a.Call)...)
	case domain.CollectAction:
		if a.Multiple {
			return []any{string(domain.KindCollect), a.Path, AllMarker, EncodeSelector(a.Selector)}
		}
		return []any{string(domain.KindCollect), a.Path, EncodeSelector(a.Selector)}
	case domain.FallbackAction:
		return append([]any{string(domain.KindFallback)}, Encode(a.Inner)...)
	case domain.InvalidAction:
		return a.Raw
	}
	return nil
}

// EncodeAll renders a whole task script.
func EncodeAll(actions []domain.Action) []any {
	out := make([]any, len(actions))
	for i, a := range actions {
		out[i] = Encode(a)
	}
	return out
}

func encodeCall(c domain.DriverCall) []any {
	out := []any{string(c.Op)}
	switch c.Op {
	case domain.OpNavigate:
		out = append(out, c.URL)
	case domain.OpWrite:
		out = append(out, EncodeSelector(c.Selector), c.Text)
	case domain.OpClick:
		out = append(out, EncodeSelector(c.Selector))
	case domain.OpRead, domain.OpFind:
		out = append(out, EncodeSelector(c.Selector))
		if c.Multiple {
			out = append(out, true)
		}
	}
	return out
}

// EncodeSelector renders xpath selectors as bare strings and the others as
// [by, value] pairs.
func EncodeSelector(sel domain.Selector) any {
	if sel.Strategy() == domain.ByXPath {
		return sel.Value
	}
	return []any{string(sel.By), sel.Value}
}
