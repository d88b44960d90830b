// Package reporter folds the `state` topic's stream of per-facet updates
// into a local snapshot and pushes the accumulated diff to the voice-cloud
// callback as a single debounced HTTPS POST. It runs as one cooperative
// goroutine: a bus subscription feeds a store, a coalescing timer feeds a
// flush, and a flush only clears the diff on confirmed delivery.
package reporter
