/*
Package runner executes workflows on behalf of the front-ends (CLI, HTTP, MCP).

Front-ends share one browser session, so the Runner serializes runs through a
ports.DistributedLocker, builds a fresh trawler.Workflow per request, and
persists the resulting state tree under a new result ID when a store is set.

# Usage

	r := runner.New(driver,
		runner.WithStore(store),
		runner.WithLogger(logger),
	)

	res, err := r.RunScript(ctx, script)
*/
package runner
