// Package dispatch fans reading-list queries out to a bounded worker pool.
// Workers pull indexed tasks from a shared channel, throttle their own fetch
// starts, and write results into per-index slots so output order always
// matches input order regardless of worker count.
package dispatch
