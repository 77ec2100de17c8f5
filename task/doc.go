// Package task provides task groups: structured owners of concurrent
// work. A Group bounds the lifetime of every task it spawns to its own
// scope, cancels siblings on failure (under the FailFast policy),
// aggregates multiple failures in spawn order, and never returns from
// Wait while a child is still running.
package task
