// Package prim provides the resource primitives of the runtime: Lock,
// Semaphore, CapacityLimiter, Event and Cond. All blocking operations
// take a context and unblock on cancellation. Waiters on the same
// primitive are woken in FIFO order; that ordering is a deliberate
// contract of this package, chosen for determinism, and no ordering is
// implied across different primitives.
package prim
