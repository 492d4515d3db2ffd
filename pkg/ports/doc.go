/*
Package ports defines the driven ports (interfaces) of the trawler engine.

These interfaces decouple the interpreter from browsers, storage backends and
lock services, so the same workflow runs against chromedp in production and a
scripted in-memory driver in tests.

# Key Interfaces

  - Driver: browser-control capability (navigate, write, read, click, find).
  - ResultStore: persistence of final state trees.
  - DistributedLocker: serialized access to a shared driver session.
*/
package ports
