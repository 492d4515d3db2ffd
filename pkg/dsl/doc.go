/*
Package dsl turns action scripts into typed domain actions.

Scripts arrive as tuples, either decoded from YAML/JSON files and HTTP payloads
or built in Go with the fluent Builder:

	actions := dsl.New().
		Navigate("https://example.test").
		Collect("title", domain.XPath("//h1")).
		Fallback(domain.Collect("title", domain.XPath("//title"))).
		Build()

The tuple grammar is:

	[driver, navigate, url]
	[driver, write, selector, text]
	[driver, click, selector]
	[driver, read|find, selector, (multiple)]
	[collect, path, selector, (multiple)]
	[collect, path, all, selector]
	[fallback, driver|collect, ...]

A selector is an xpath string, a "by=value" string, a [by, value] pair or a
{by: ..., value: ...} map, with by one of xpath, css, id or js.
*/
package dsl
