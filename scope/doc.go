// Package scope provides nestable cancellation and deadline boundaries.
// A Scope wraps a context with an optional deadline and shield flag,
// records whether cancellation was requested and whether its own
// cancellation was the one observed at exit, and composes with nested
// scopes so the innermost deadline that fires is the one that is caught.
package scope
