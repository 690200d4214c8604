// Package migrate upgrades a persisted state tree to the current schema.
//
// A Table holds versioned Migrations ordered by target version. A Runner
// reads the tree's schema marker (main._version), applies every migration
// whose version is greater, in ascending order, and stamps the tree with the
// table's latest version. The caller's tree is never mutated: the runner works
// on a deep copy and returns it.
//
// Data flow:
//
//	load -> Runner.Apply(state) -> upgraded copy -> save
//
// Migrations may carry a guard expression (Migration.When) evaluated by an
// Evaluator (expr by default, CEL or goja on request), and Rewrite builds
// declarative value-rewrite steps over wildcard paths.
package migrate
