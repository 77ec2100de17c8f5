// Package pattern provides composite concurrency patterns built
// entirely from the scope, task and prim packages: a bounded
// connection pool, ordered parallel fan-out, retry with per-attempt
// timeouts, and a long-lived worker pool.
package pattern
