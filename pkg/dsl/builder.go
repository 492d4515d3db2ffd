package dsl

import "github.com/aretw0/trawler/pkg/domain"

// Builder assembles a task script with a fluent API.
type Builder struct {
	actions []domain.Action
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) add(a domain.Action) *Builder {
	b.actions = append(b.actions, a)
	return b
}

// Navigate loads a URL.
func (b *Builder) Navigate(url string) *Builder {
	return b.add(domain.Navigate(url))
}

// Write types text into the element.
func (b *Builder) Write(sel domain.Selector, text string) *Builder {
	return b.add(domain.Write(sel, text))
}

// Click clicks the element.
func (b *Builder) Click(sel domain.Selector) *Builder {
	return b.add(domain.Click(sel))
}

// Read waits for the element and discards its text.
func (b *Builder) Read(sel domain.Selector, multiple bool) *Builder {
	return b.add(domain.DriverAction{Call: domain.DriverCall{Op: domain.OpRead, Selector: sel, Multiple: multiple}})
}

// Find waits for the element.
func (b *Builder) Find(sel domain.Selector, multiple bool) *Builder {
	return b.add(domain.DriverAction{Call: domain.DriverCall{Op: domain.OpFind, Selector: sel, Multiple: multiple}})
}

// Collect stores the element's text at path.
func (b *Builder) Collect(path string, sel domain.Selector) *Builder {
	return b.add(domain.Collect(path, sel))
}

// CollectAll stores the texts of every match at path.
func (b *Builder) CollectAll(path string, sel domain.Selector) *Builder {
	return b.add(domain.CollectAction{Path: path, Selector: sel, Multiple: true})
}

// Fallback adds inner guarded by the failure of the previous action.
// Chained fallbacks are expressed as consecutive calls.
func (b *Builder) Fallback(inner domain.Action) *Builder {
	return b.add(domain.Fallback(inner))
}

// Build returns a copy of the actions added so far.
func (b *Builder) Build() []domain.Action {
	return append([]domain.Action(nil), b.actions...)
}
