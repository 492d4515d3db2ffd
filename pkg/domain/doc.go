/*
Package domain contains the core types of the trawler workflow engine.

It defines the vocabulary shared by the interpreter, the front-ends and the
adapters. The package has no I/O and no third-party dependencies.

# Key Entities

  - Action: a parsed script instruction (driver, collect, fallback).
  - Selector: how an element is located on the page.
  - Ledger: per-task record of which action indices succeeded or failed.
  - Tree: the path-addressed result structure filled by collect actions.
*/
package domain
