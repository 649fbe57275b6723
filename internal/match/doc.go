// Package match implements the title matching engine: normalization of
// raw titles into comparable variants, fuzzy similarity scoring against
// store candidates, and best-candidate selection with ISBN short-circuit.
//
// Everything in this package is pure computation over owned inputs; it is
// safe to call from any number of goroutines without synchronization.
package match
