package domain

import "fmt"

// SelectorStrategy names how a selector value is resolved by the driver.
type SelectorStrategy string

const (
	ByXPath SelectorStrategy = "xpath" // Default
	ByCSS   SelectorStrategy = "css"
	ByID    SelectorStrategy = "id"
	ByJS    SelectorStrategy = "js"
)

// Valid reports whether the strategy is one the drivers understand.
func (s SelectorStrategy) Valid() bool {
	switch s {
	case ByXPath, ByCSS, ByID, ByJS:
		return true
	}
	return false
}

// Selector locates one or more elements on the current page.
type Selector struct {
	By    SelectorStrategy `json:"by" yaml:"by" mapstructure:"by"`
	Value string           `json:"value" yaml:"value" mapstructure:"value"`
}

// XPath is shorthand for an xpath selector.
func XPath(expr string) Selector {
	return Selector{By: ByXPath, Value: expr}
}

// CSS is shorthand for a css selector.
func CSS(query string) Selector {
	return Selector{By: ByCSS, Value: query}
}

// Strategy returns the effective strategy, defaulting to xpath.
func (s Selector) Strategy() SelectorStrategy {
	if s.By == "" {
		return ByXPath
	}
	return s.By
}

// String renders the selector the way fixtures and logs key it:
// the bare value for xpath, "by=value" for everything else.
func (s Selector) String() string {
	if s.Strategy() == ByXPath {
		return s.Value
	}
	return fmt.Sprintf("%s=%s", s.By, s.Value)
}
