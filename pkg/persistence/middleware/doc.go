// Package middleware wraps a ports.ResultStore with encryption at rest and
// masking of sensitive collected values.
package middleware
