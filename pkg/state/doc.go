// Package state loads and saves the persisted state tree and upgrades it on
// startup.
//
// A Store only reads and writes one document. Upgrader combines a Store with
// a migrator (normally *migrate.Runner):
//
//	Store.Load -> Runner.ApplyWithReport -> Store.Save (only when something changed)
//
// Concurrency control uses Meta.ETag. Stores compute it from the saved
// content, and Save rejects a write whose Meta.ETag no longer matches the
// stored document with ErrETagMismatch. An empty ETag skips the check.
package state
