/*
Package trawler is a browser-automation workflow engine.

A Workflow executes ordered scripts of declarative actions against one live
browser session and accumulates the extracted values into a nested,
path-addressed result tree.

# Actions

Scripts are lists of tuples whose first element selects the handler:

	[driver, navigate, "https://example.test"]
	[driver, write, "//input[@name='q']", "golang"]
	[driver, click, ["css", "button.submit"]]
	[collect, "results/titles", all, ["css", "h3"]]
	[fallback, collect, "results/titles", "//h3"]

A fallback runs only when the action immediately before it failed because an
element could not be found. Any other driver error stops the workflow; what
was collected up to that point is kept.

# Usage

	drv := memory.NewDriver(pages) // or chromedp.New(ctx, cfg)

	wf := trawler.New(drv, trawler.WithLogger(logger))
	wf.AddScript([]any{
		[]any{"driver", "navigate", "https://example.test"},
		[]any{"collect", "title", "//h1"},
		[]any{"fallback", "collect", "title", "//title"},
	})

	report, err := wf.Execute(ctx)
	if err != nil {
		log.Printf("halted: %v", err)
	}
	fmt.Println(wf.State(), report.FailedActions())
*/
package trawler
